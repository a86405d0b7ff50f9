package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"imob_crm_backend/internal/events"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu    sync.Mutex
	leads map[uuid.UUID]domain.Lead
	turns []domain.Turn
	ops   []string

	updates    int
	failAppend func(turn domain.NewTurn) bool
	failUpdate func(call int, patch domain.Patch) bool
	failRecent bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]domain.Lead)}
}

func (s *fakeStore) addLead(name string, mode domain.AttendanceMode) domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead := domain.NewInboundLead(uuid.New(), name, domain.SourceSite)
	lead.ID = uuid.New()
	lead.Mode = mode
	s.leads[lead.ID] = lead
	return lead
}

func (s *fakeStore) lead(id uuid.UUID) domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads[id]
}

func (s *fakeStore) turnsFor(id uuid.UUID) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, 0)
	for _, turn := range s.turns {
		if turn.LeadID == id {
			out = append(out, turn)
		}
	}
	return out
}

func (s *fakeStore) aiTurns(id uuid.UUID) []domain.Turn {
	out := make([]domain.Turn, 0)
	for _, turn := range s.turnsFor(id) {
		if turn.Sender == domain.SenderAI {
			out = append(out, turn)
		}
	}
	return out
}

func (s *fakeStore) opLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *fakeStore) GetLead(_ context.Context, id uuid.UUID, accountID uuid.UUID) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok || lead.AccountID != accountID {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (s *fakeStore) UpdateLead(_ context.Context, id uuid.UUID, accountID uuid.UUID, patch domain.Patch) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.failUpdate != nil && s.failUpdate(s.updates, patch) {
		return domain.Lead{}, errStoreDown
	}
	lead, ok := s.leads[id]
	if !ok || lead.AccountID != accountID {
		return domain.Lead{}, repository.ErrNotFound
	}
	lead = patch.Apply(lead)
	lead.UpdatedAt = time.Now()
	s.leads[id] = lead
	s.ops = append(s.ops, "update")
	return lead, nil
}

func (s *fakeStore) AppendTurn(_ context.Context, turn domain.NewTurn) (domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend != nil && s.failAppend(turn) {
		return domain.Turn{}, errStoreDown
	}
	stored := domain.Turn{
		ID:                uuid.New(),
		LeadID:            turn.LeadID,
		AccountID:         turn.AccountID,
		Content:           turn.Content,
		Sender:            turn.Sender,
		IsAI:              turn.Sender == domain.SenderAI,
		IsTransferRequest: turn.IsTransferRequest,
		CreatedAt:         time.Now(),
	}
	s.turns = append(s.turns, stored)
	s.ops = append(s.ops, "append:"+string(turn.Sender))
	return stored, nil
}

func (s *fakeStore) RecentTurns(_ context.Context, leadID uuid.UUID, _ uuid.UUID, limit int) ([]domain.Turn, error) {
	if s.failRecent {
		return nil, errStoreDown
	}
	turns := s.turnsFor(leadID)
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	requests []domain.ReplyRequest
	reply    func(ctx context.Context, req domain.ReplyRequest) (string, error)
}

func replyWith(text string) *fakeGenerator {
	return &fakeGenerator{reply: func(context.Context, domain.ReplyRequest) (string, error) { return text, nil }}
}

func (g *fakeGenerator) GenerateReply(ctx context.Context, req domain.ReplyRequest) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.reply(ctx, req)
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, 0)
	for _, event := range b.events {
		if event.EventName() == name {
			out = append(out, event)
		}
	}
	return out
}
