// Package webhook provides the inbound lead intake bounded context module.
// This file defines the module that encapsulates all webhook setup and route registration.
package webhook

import (
	apphttp "imob_crm_backend/internal/http"
	"imob_crm_backend/platform/config"
	"imob_crm_backend/platform/httpkit"
	"imob_crm_backend/platform/logger"
	"imob_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
	limiter *httpkit.IPRateLimiter
	log     *logger.Logger
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(pool *pgxpool.Pool, leads LeadCreator, conv InboundProcessor, val *validator.Validator, cfg config.WebhookConfig, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(leads, conv, repo, log)

	return &Module{
		handler: NewHandler(service, repo, val),
		repo:    repo,
		limiter: httpkit.NewPerMinuteLimiter(cfg.GetWebhookRatePerMinute(), log),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public intake (webhook secret, no JWT)
	webhookGroup := ctx.V1.Group("/webhook")
	webhookGroup.Use(m.limiter.RateLimit(), APIKeyAuthMiddleware(m.repo, m.log))
	webhookGroup.POST("/leads", m.handler.HandleIntake)

	// Admin API key management (JWT auth + admin role)
	adminGroup := ctx.Admin.Group("/webhook/keys")
	adminGroup.POST("", m.handler.HandleCreateAPIKey)
	adminGroup.GET("", m.handler.HandleListAPIKeys)
	adminGroup.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)

	ctx.Protected.GET("/integrations/portals", m.handler.HandleListPortals)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
