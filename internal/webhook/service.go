package webhook

import (
	"context"
	"strings"
	"time"

	"imob_crm_backend/internal/leads/conversation"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/management"
	"imob_crm_backend/internal/leads/transport"
	"imob_crm_backend/platform/apperr"
	"imob_crm_backend/platform/logger"
	"imob_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	initialMessageNotePrefix = "Mensagem inicial: "
	intakeSuccessMessage     = "Lead created successfully"
	intakeRetryMessage       = "Lead created, initial message not processed; replay it to /leads/{leadId}/messages"
)

// LeadCreator is the interface for creating leads. Satisfied by management.Service.
type LeadCreator interface {
	CreateFromWebhook(ctx context.Context, accountID uuid.UUID, req transport.CreateLeadRequest) (domain.Lead, error)
}

// InboundProcessor runs a lead message through the hand-off protocol.
// Satisfied by conversation.Controller.
type InboundProcessor interface {
	ProcessInbound(ctx context.Context, accountID, leadID uuid.UUID, message string) (conversation.Exchange, error)
}

// PortalCounter records deliveries per portal.
type PortalCounter interface {
	IncrementPortal(ctx context.Context, accountID uuid.UUID, source domain.Source, at time.Time) error
}

// IntakeRequest is the payload portals post to the intake endpoint.
type IntakeRequest struct {
	Name     string        `json:"name" validate:"required,min=1,max=200"`
	Source   domain.Source `json:"source" validate:"required,oneof=facebook instagram google olx site whatsapp"`
	Email    string        `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone    string        `json:"phone,omitempty" validate:"omitempty,min=5,max=30"`
	Interest string        `json:"interest,omitempty" validate:"max=500"`
	Budget   string        `json:"budget,omitempty" validate:"max=100"`
	Message  string        `json:"message,omitempty" validate:"max=4000"`
}

// IntakeResponse is returned to the portal once the lead exists.
// Retryable is set when the initial message hit a transient failure; the lead
// is kept and the message must be replayed against LeadID, not re-delivered.
type IntakeResponse struct {
	Success   bool                        `json:"success"`
	LeadID    uuid.UUID                   `json:"leadId"`
	Message   string                      `json:"message"`
	Exchange  *transport.ExchangeResponse `json:"exchange,omitempty"`
	Retryable bool                        `json:"retryable,omitempty"`
}

// Service captures leads delivered by external portals.
type Service struct {
	leads    LeadCreator
	conv     InboundProcessor
	counters PortalCounter
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a new webhook service.
func NewService(leads LeadCreator, conv InboundProcessor, counters PortalCounter, log *logger.Logger) *Service {
	return &Service{
		leads:    leads,
		conv:     conv,
		counters: counters,
		log:      log,
		now:      time.Now,
	}
}

// Intake creates the lead in automated attendance and, when the portal sent
// a first message, runs it through the conversation so the lead gets an answer.
// Once the lead exists the request succeeds; a counter failure is only logged.
// A transient failure on the initial message marks the response Retryable.
func (s *Service) Intake(ctx context.Context, accountID uuid.UUID, req IntakeRequest) (IntakeResponse, error) {
	message := sanitize.Text(req.Message)

	createReq := transport.CreateLeadRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Source:   req.Source,
		Budget:   req.Budget,
		Interest: req.Interest,
	}
	if message != "" {
		createReq.Notes = initialMessageNotePrefix + message
	}

	lead, err := s.leads.CreateFromWebhook(ctx, accountID, createReq)
	if err != nil {
		s.log.Error("webhook: failed to create lead", "error", err, "source", req.Source)
		return IntakeResponse{}, err
	}

	if err := s.counters.IncrementPortal(ctx, accountID, lead.Source, s.now()); err != nil {
		s.log.Warn("webhook: failed to update portal counter", "error", err, "leadId", lead.ID, "source", lead.Source)
	}

	resp := IntakeResponse{
		Success: true,
		LeadID:  lead.ID,
		Message: intakeSuccessMessage,
	}

	if strings.TrimSpace(message) == "" {
		return resp, nil
	}

	exchange, err := s.conv.ProcessInbound(ctx, accountID, lead.ID, message)
	if err != nil {
		s.log.Error("webhook: initial message not processed", "error", err, "leadId", lead.ID, "retryable", apperr.Retryable(err))
		if apperr.Retryable(err) {
			resp.Retryable = true
			resp.Message = intakeRetryMessage
		}
		return resp, nil
	}

	converted := management.ToExchangeResponse(exchange)
	resp.Exchange = &converted
	return resp, nil
}
