package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/repository"
	"imob_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeLeadStore struct {
	lead     domain.Lead
	getErr   error
	markErr  error
	marked   []time.Time
	lookedUp int
}

func (f *fakeLeadStore) GetLead(_ context.Context, id uuid.UUID, accountID uuid.UUID) (domain.Lead, error) {
	f.lookedUp++
	if f.getErr != nil {
		return domain.Lead{}, f.getErr
	}
	if id != f.lead.ID || accountID != f.lead.AccountID {
		return domain.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeLeadStore) MarkHandoffNotified(_ context.Context, _ uuid.UUID, _ uuid.UUID, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, at)
	return nil
}

func newTestWorker(store LeadStore, now time.Time) *Worker {
	w := newHandlers(store, logger.Nop())
	w.now = func() time.Time { return now }
	return w
}

func handoffTask(t *testing.T, lead domain.Lead) *asynq.Task {
	t.Helper()
	task, err := NewHandoffAlertTask(HandoffAlertPayload{
		LeadID:    lead.ID.String(),
		AccountID: lead.AccountID.String(),
		Reason:    "lead_request",
	})
	if err != nil {
		t.Fatalf("NewHandoffAlertTask: %v", err)
	}
	return task
}

func waitingLead() domain.Lead {
	lead := domain.NewInboundLead(uuid.New(), "Maria", domain.SourceSite)
	lead.ID = uuid.New()
	lead.Mode = domain.ModeHumanRequested
	return lead
}

func TestHandoffAlertPayloadRoundTrip(t *testing.T) {
	lead := waitingLead()
	task := handoffTask(t, lead)

	if task.Type() != TaskHandoffAlert {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	payload, err := ParseHandoffAlertPayload(task)
	if err != nil {
		t.Fatalf("ParseHandoffAlertPayload: %v", err)
	}
	if payload.LeadID != lead.ID.String() || payload.AccountID != lead.AccountID.String() || payload.Reason != "lead_request" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestHandleHandoffAlertStampsWaitingLead(t *testing.T) {
	lead := waitingLead()
	store := &fakeLeadStore{lead: lead}
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	if err := newTestWorker(store, now).handleHandoffAlert(context.Background(), handoffTask(t, lead)); err != nil {
		t.Fatalf("handleHandoffAlert: %v", err)
	}

	if len(store.marked) != 1 || !store.marked[0].Equal(now) {
		t.Fatalf("expected lead stamped at %v, got %v", now, store.marked)
	}
}

func TestHandleHandoffAlertSkipsResumedLead(t *testing.T) {
	lead := waitingLead()
	lead.Mode = domain.ModeAIActive
	store := &fakeLeadStore{lead: lead}

	if err := newTestWorker(store, time.Now()).handleHandoffAlert(context.Background(), handoffTask(t, lead)); err != nil {
		t.Fatalf("handleHandoffAlert: %v", err)
	}

	if len(store.marked) != 0 {
		t.Fatalf("resumed lead must not be stamped, got %v", store.marked)
	}
}

func TestHandleHandoffAlertSkipsMissingLead(t *testing.T) {
	lead := waitingLead()
	store := &fakeLeadStore{lead: lead, getErr: repository.ErrNotFound}

	if err := newTestWorker(store, time.Now()).handleHandoffAlert(context.Background(), handoffTask(t, lead)); err != nil {
		t.Fatalf("missing lead should not be retried, got %v", err)
	}
}

func TestHandleHandoffAlertRetriesStoreFailure(t *testing.T) {
	lead := waitingLead()
	boom := errors.New("connection reset")

	tests := []struct {
		name  string
		store *fakeLeadStore
	}{
		{name: "load", store: &fakeLeadStore{lead: lead, getErr: boom}},
		{name: "stamp", store: &fakeLeadStore{lead: lead, markErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestWorker(tt.store, time.Now()).handleHandoffAlert(context.Background(), handoffTask(t, lead))
			if !errors.Is(err, boom) {
				t.Fatalf("expected store error, got %v", err)
			}
			if errors.Is(err, asynq.SkipRetry) {
				t.Fatal("store failures must stay retryable")
			}
		})
	}
}

func TestHandleHandoffAlertRejectsBadPayload(t *testing.T) {
	store := &fakeLeadStore{}
	tests := []struct {
		name string
		task *asynq.Task
	}{
		{name: "not json", task: asynq.NewTask(TaskHandoffAlert, []byte("{"))},
		{name: "bad lead id", task: asynq.NewTask(TaskHandoffAlert, []byte(`{"leadId":"x","accountId":"`+uuid.NewString()+`"}`))},
		{name: "bad account id", task: asynq.NewTask(TaskHandoffAlert, []byte(`{"leadId":"`+uuid.NewString()+`","accountId":"x"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestWorker(store, time.Now()).handleHandoffAlert(context.Background(), tt.task)
			if !errors.Is(err, asynq.SkipRetry) {
				t.Fatalf("expected SkipRetry, got %v", err)
			}
		})
	}
	if store.lookedUp != 0 {
		t.Fatalf("bad payloads must not reach the store, got %d lookups", store.lookedUp)
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "secret" || opt.DB != 2 || opt.TLSConfig != nil {
		t.Fatalf("unexpected opt %+v", opt)
	}

	tlsOpt, err := redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt tls: %v", err)
	}
	if tlsOpt.TLSConfig == nil || !tlsOpt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure tls config, got %+v", tlsOpt.TLSConfig)
	}
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var c *Client
	if err := c.EnqueueHandoffAlert(context.Background(), uuid.New(), uuid.New(), "lead_request"); err != nil {
		t.Fatalf("nil client should be a no-op, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil client close: %v", err)
	}
}
