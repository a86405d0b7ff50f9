// Package settings provides the per-account assistant preferences module.
package settings

import (
	apphttp "imob_crm_backend/internal/http"
	"imob_crm_backend/platform/logger"
	"imob_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates the settings module over pool.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(repo, val, log),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Repository exposes the settings store for modules that read preferences.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts settings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/settings"))
}

var _ apphttp.Module = (*Module)(nil)
