package webhook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"imob_crm_backend/internal/events"
	"imob_crm_backend/internal/leads/classifier"
	"imob_crm_backend/internal/leads/conversation"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/transport"
	"imob_crm_backend/platform/apperr"
	"imob_crm_backend/platform/lock"
	"imob_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadCreator struct {
	requests []transport.CreateLeadRequest
	err      error
	lead     domain.Lead
	onCreate func(domain.Lead)
}

func (f *fakeLeadCreator) CreateFromWebhook(_ context.Context, accountID uuid.UUID, req transport.CreateLeadRequest) (domain.Lead, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.Lead{}, f.err
	}
	lead := domain.NewInboundLead(accountID, req.Name, req.Source)
	lead.ID = uuid.New()
	f.lead = lead
	if f.onCreate != nil {
		f.onCreate(lead)
	}
	return lead, nil
}

type fakeProcessor struct {
	messages []string
	err      error
}

func (f *fakeProcessor) ProcessInbound(_ context.Context, _ uuid.UUID, leadID uuid.UUID, message string) (conversation.Exchange, error) {
	f.messages = append(f.messages, message)
	if f.err != nil {
		return conversation.Exchange{}, f.err
	}
	reply := domain.Turn{ID: uuid.New(), LeadID: leadID, Content: "Olá! Como posso ajudar?", Sender: domain.SenderAI, IsAI: true}
	return conversation.Exchange{
		LeadTurn:  domain.Turn{ID: uuid.New(), LeadID: leadID, Content: message, Sender: domain.SenderLead},
		Reply:     &reply,
		Lead:      domain.Lead{ID: leadID, Mode: domain.ModeAIActive},
		Generated: true,
	}, nil
}

type fakeCounter struct {
	increments []domain.Source
	err        error
}

func (f *fakeCounter) IncrementPortal(_ context.Context, _ uuid.UUID, source domain.Source, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.increments = append(f.increments, source)
	return nil
}

type serviceHarness struct {
	leads    *fakeLeadCreator
	conv     *fakeProcessor
	counters *fakeCounter
	svc      *Service
}

func newServiceHarness() *serviceHarness {
	h := &serviceHarness{
		leads:    &fakeLeadCreator{},
		conv:     &fakeProcessor{},
		counters: &fakeCounter{},
	}
	h.svc = NewService(h.leads, h.conv, h.counters, logger.Nop())
	return h
}

func TestIntakeWithoutMessageOnlyCreatesLead(t *testing.T) {
	h := newServiceHarness()

	resp, err := h.svc.Intake(context.Background(), uuid.New(), IntakeRequest{Name: "Ana", Source: domain.SourceOLX})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}

	if !resp.Success || resp.LeadID != h.leads.lead.ID || resp.Exchange != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(h.conv.messages) != 0 {
		t.Fatalf("no message means no conversation, got %v", h.conv.messages)
	}
	if len(h.counters.increments) != 1 || h.counters.increments[0] != domain.SourceOLX {
		t.Fatalf("expected one olx increment, got %v", h.counters.increments)
	}
	if h.leads.requests[0].Notes != "" {
		t.Fatalf("expected no notes, got %q", h.leads.requests[0].Notes)
	}
}

func TestIntakeWithMessageAnswersLead(t *testing.T) {
	h := newServiceHarness()

	resp, err := h.svc.Intake(context.Background(), uuid.New(), IntakeRequest{
		Name:     "Bruno",
		Source:   domain.SourceFacebook,
		Interest: "Apartamento 2 quartos",
		Message:  "  Olá, vi o anúncio  ",
	})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}

	if got := h.leads.requests[0].Notes; got != "Mensagem inicial: Olá, vi o anúncio" {
		t.Fatalf("unexpected notes %q", got)
	}
	if len(h.conv.messages) != 1 || h.conv.messages[0] != "Olá, vi o anúncio" {
		t.Fatalf("expected cleaned message to reach the conversation, got %v", h.conv.messages)
	}
	if resp.Exchange == nil || resp.Exchange.Reply == nil || !resp.Exchange.Generated {
		t.Fatalf("expected exchange with reply, got %+v", resp.Exchange)
	}
}

func TestIntakeCreateFailureIsReturned(t *testing.T) {
	h := newServiceHarness()
	h.leads.err = apperr.Validation("name is required")

	_, err := h.svc.Intake(context.Background(), uuid.New(), IntakeRequest{Name: " ", Source: domain.SourceSite, Message: "oi"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.counters.increments) != 0 || len(h.conv.messages) != 0 {
		t.Fatal("nothing may happen after a failed create")
	}
}

func TestIntakeDownstreamFailures(t *testing.T) {
	tests := []struct {
		name       string
		counterErr error
		convErr    error
		retryable  bool
	}{
		{name: "counter failure is only logged", counterErr: errors.New("counter down")},
		{name: "transient conversation failure asks for replay", convErr: apperr.Unavailable("lead store unavailable"), retryable: true},
		{name: "permanent conversation failure is not retried", convErr: apperr.NotFound("lead not found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServiceHarness()
			h.counters.err = tt.counterErr
			h.conv.err = tt.convErr

			resp, err := h.svc.Intake(context.Background(), uuid.New(), IntakeRequest{Name: "Carla", Source: domain.SourceGoogle, Message: "tenho interesse"})
			if err != nil {
				t.Fatalf("lead was created, intake must not fail: %v", err)
			}
			if !resp.Success || resp.LeadID != h.leads.lead.ID {
				t.Fatalf("expected the created lead in the response, got %+v", resp)
			}
			if resp.Retryable != tt.retryable {
				t.Fatalf("expected retryable=%v, got %+v", tt.retryable, resp)
			}
			if tt.convErr != nil && resp.Exchange != nil {
				t.Fatalf("failed exchange must not be attached, got %+v", resp.Exchange)
			}
			if tt.convErr == nil && resp.Exchange == nil {
				t.Fatal("expected exchange when the conversation succeeded")
			}
		})
	}
}

// updateFailingStore records turns but cannot persist lead changes.
type updateFailingStore struct {
	mu    sync.Mutex
	lead  domain.Lead
	turns []domain.NewTurn
}

func (s *updateFailingStore) GetLead(_ context.Context, _ uuid.UUID, _ uuid.UUID) (domain.Lead, error) {
	return s.lead, nil
}

func (s *updateFailingStore) UpdateLead(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ domain.Patch) (domain.Lead, error) {
	return domain.Lead{}, errors.New("connection reset")
}

func (s *updateFailingStore) AppendTurn(_ context.Context, turn domain.NewTurn) (domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return domain.Turn{ID: uuid.New(), LeadID: turn.LeadID, Content: turn.Content, Sender: turn.Sender}, nil
}

func (s *updateFailingStore) RecentTurns(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ int) ([]domain.Turn, error) {
	return nil, nil
}

func TestIntakeLostClassificationIsRetryable(t *testing.T) {
	accountID := uuid.New()
	h := newServiceHarness()

	store := &updateFailingStore{}
	bus := events.NewInMemoryBus(logger.Nop())
	controller := conversation.New(store, classifier.NewDefault(), nil, lock.NewLocal(), bus, logger.Nop(), conversation.Options{})
	svc := NewService(h.leads, controller, h.counters, logger.Nop())

	// the controller loads whatever the creator produced
	h.leads.onCreate = func(lead domain.Lead) { store.lead = lead }

	resp, err := svc.Intake(context.Background(), accountID, IntakeRequest{Name: "Davi", Source: domain.SourceSite, Message: "É urgente, preciso agora"})
	bus.Wait()
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if !resp.Retryable || resp.Exchange != nil {
		t.Fatalf("expected a retryable response without exchange, got %+v", resp)
	}
	if len(store.turns) != 1 || store.turns[0].Sender != domain.SenderLead {
		t.Fatalf("expected only the lead turn recorded, got %+v", store.turns)
	}
}
