// Package leads provides the lead conversation bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"imob_crm_backend/internal/events"
	apphttp "imob_crm_backend/internal/http"
	"imob_crm_backend/internal/leads/classifier"
	"imob_crm_backend/internal/leads/conversation"
	"imob_crm_backend/internal/leads/handler"
	"imob_crm_backend/internal/leads/management"
	"imob_crm_backend/internal/leads/repository"
	"imob_crm_backend/platform/config"
	"imob_crm_backend/platform/lock"
	"imob_crm_backend/platform/logger"
	"imob_crm_backend/platform/phone"
	"imob_crm_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces the leads module reads.
type ModuleConfig interface {
	config.ConversationConfig
	config.WebhookConfig
}

// HandoffAlerter queues the operator alert for a lead waiting on a broker.
type HandoffAlerter interface {
	EnqueueHandoffAlert(ctx context.Context, leadID, accountID uuid.UUID, reason string) error
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	management   *management.Service
	conversation *conversation.Controller
}

// NewModule creates and initializes the leads module with all its dependencies.
// generator may be nil; alerts may be nil when no queue is configured;
// settings may be nil to let every account auto-respond.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	val *validator.Validator,
	cfg ModuleConfig,
	log *logger.Logger,
	locker lock.Locker,
	generator conversation.ReplyGenerator,
	alerts HandoffAlerter,
	settings conversation.AccountSettings,
) (*Module, error) {
	rules, err := classifier.LoadRules(cfg.GetClassifierRulesPath())
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)

	controller := conversation.New(repo, classifier.New(rules), generator, locker, eventBus, log, conversation.Options{
		ReplyTimeout: cfg.GetAIReplyTimeout(),
		HistoryLimit: cfg.GetAIHistoryLimit(),
		Settings:     settings,
	})
	mgmtSvc := management.New(repo, eventBus, phone.NewNormalizer(cfg.GetPhoneDefaultRegion()))

	eventBus.Subscribe(events.HandoffRequested{}.EventName(), handoffAlertHandler(alerts, log))
	audit := auditHandler(log)
	eventBus.Subscribe(events.LeadCreated{}.EventName(), audit)
	eventBus.Subscribe(events.AIPaused{}.EventName(), audit)
	eventBus.Subscribe(events.AIResumed{}.EventName(), audit)

	return &Module{
		handler:      handler.New(mgmtSvc, controller, val),
		management:   mgmtSvc,
		conversation: controller,
	}, nil
}

func handoffAlertHandler(alerts HandoffAlerter, log *logger.Logger) events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.HandoffRequested)
		if !ok {
			return nil
		}

		if alerts == nil {
			log.Warn("hand-off requested, no alert queue configured",
				"lead_id", e.LeadID, "account_id", e.AccountID, "reason", e.Reason)
			return nil
		}

		return alerts.EnqueueHandoffAlert(ctx, e.LeadID, e.AccountID, e.Reason)
	})
}

// auditHandler records attendance changes an operator may need to trace later.
func auditHandler(log *logger.Logger) events.Handler {
	return events.HandlerFunc(func(_ context.Context, event events.Event) error {
		switch e := event.(type) {
		case events.LeadCreated:
			log.Info("lead captured",
				"lead_id", e.LeadID, "account_id", e.AccountID, "source", e.Source, "via_webhook", e.ViaWebhook)
		case events.AIPaused:
			log.Info("assistant paused by operator", "lead_id", e.LeadID, "account_id", e.AccountID)
		case events.AIResumed:
			log.Info("assistant resumed by operator",
				"lead_id", e.LeadID, "account_id", e.AccountID, "cleared_handoff", e.WasHandoff)
		}
		return nil
	})
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// Conversation returns the hand-off controller for external use.
func (m *Module) Conversation() *conversation.Controller {
	return m.conversation
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
