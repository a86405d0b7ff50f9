package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/repository"
	"imob_crm_backend/platform/config"
	"imob_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadStore is what the hand-off alert handler reads and stamps.
type LeadStore interface {
	GetLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (domain.Lead, error)
	MarkHandoffNotified(ctx context.Context, id uuid.UUID, accountID uuid.UUID, at time.Time) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadStore
	log    *logger.Logger
	now    func() time.Time
}

func NewWorker(cfg config.SchedulerConfig, leads LeadStore, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := newHandlers(leads, log)
	w.server = server
	w.mux = mux

	mux.HandleFunc(TaskHandoffAlert, w.handleHandoffAlert)

	return w, nil
}

func newHandlers(leads LeadStore, log *logger.Logger) *Worker {
	return &Worker{leads: leads, log: log, now: time.Now}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleHandoffAlert(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseHandoffAlertPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: invalid lead id: %v", asynq.SkipRetry, err)
	}

	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return fmt.Errorf("%w: invalid account id: %v", asynq.SkipRetry, err)
	}

	log := w.log.WithLead(leadID.String())

	lead, err := w.leads.GetLead(ctx, leadID, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("hand-off alert skipped, lead is gone")
		return nil
	}
	if err != nil {
		return err
	}

	// The lead may have been resumed between enqueue and now.
	if lead.Mode != domain.ModeHumanRequested {
		log.Info("hand-off alert skipped, lead no longer waiting", "mode", lead.Mode)
		return nil
	}

	log.Warn("lead is waiting for a broker",
		"account_id", lead.AccountID,
		"lead_name", lead.Name,
		"phone", getOptionalString(lead.Phone),
		"temperature", lead.Temperature,
		"score", lead.Score,
		"reason", payload.Reason,
	)

	return w.leads.MarkHandoffNotified(ctx, lead.ID, lead.AccountID, w.now())
}

func getOptionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
