// Package conversation runs the per-message hand-off protocol: it records
// turns, applies classifier signals to the lead and decides whether the
// assistant answers.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"imob_crm_backend/internal/events"
	"imob_crm_backend/internal/leads/classifier"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/repository"
	"imob_crm_backend/platform/apperr"
	"imob_crm_backend/platform/lock"
	"imob_crm_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	// FallbackReply is sent when the reply generator fails or times out.
	FallbackReply = "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente em instantes."
	// HandoffAcknowledgement answers a lead who asked for a person.
	HandoffAcknowledgement = "Entendo! Vou transferir você para um de nossos corretores agora mesmo. Aguarde um momento."

	defaultReplyTimeout = 20 * time.Second
	defaultHistoryLimit = 20
)

// Store is the persistence the controller needs.
type Store interface {
	GetLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (domain.Lead, error)
	UpdateLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID, patch domain.Patch) (domain.Lead, error)
	AppendTurn(ctx context.Context, turn domain.NewTurn) (domain.Turn, error)
	RecentTurns(ctx context.Context, leadID uuid.UUID, accountID uuid.UUID, limit int) ([]domain.Turn, error)
}

// ReplyGenerator composes the assistant's answer to a lead message.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, req domain.ReplyRequest) (string, error)
}

// AccountSettings reports account-level assistant preferences.
type AccountSettings interface {
	AutoResponseEnabled(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// Options tunes reply generation. A nil Settings lets every account auto-respond.
type Options struct {
	ReplyTimeout time.Duration
	HistoryLimit int
	Settings     AccountSettings
}

// Exchange is the outcome of processing one inbound lead message.
type Exchange struct {
	LeadTurn domain.Turn
	// Reply is the AI turn appended in this exchange, if any.
	Reply  *domain.Turn
	Lead   domain.Lead
	Signal domain.Signal
	// Generated is true when Reply came from the reply generator.
	Generated        bool
	UsedFallback     bool
	HandoffTriggered bool
}

// Controller applies the hand-off protocol. All operations on one lead are
// serialized through the locker.
type Controller struct {
	store      Store
	classifier classifier.Classifier
	generator  ReplyGenerator
	locker     lock.Locker
	bus        events.Bus
	log        *logger.Logger
	opts       Options
}

// New creates a Controller. A nil generator makes every reply fall back.
func New(store Store, cls classifier.Classifier, generator ReplyGenerator, locker lock.Locker, bus events.Bus, log *logger.Logger, opts Options) *Controller {
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = defaultReplyTimeout
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	return &Controller{
		store:      store,
		classifier: cls,
		generator:  generator,
		locker:     locker,
		bus:        bus,
		log:        log,
		opts:       opts,
	}
}

// ProcessInbound records a lead message and, while the assistant is in charge,
// answers it.
func (c *Controller) ProcessInbound(ctx context.Context, accountID, leadID uuid.UUID, message string) (Exchange, error) {
	const op = "conversation.ProcessInbound"

	content := strings.TrimSpace(message)
	if content == "" {
		return Exchange{}, apperr.Validation("message is required").WithOp(op)
	}

	unlock, err := c.acquire(ctx, leadID)
	if err != nil {
		return Exchange{}, err
	}
	defer c.release(ctx, leadID, unlock)

	lead, err := c.getLead(ctx, accountID, leadID)
	if err != nil {
		return Exchange{}, err
	}
	log := c.log.WithContext(ctx).WithLead(leadID.String())

	signal := c.classifier.Classify(content)

	leadTurn, err := c.store.AppendTurn(ctx, domain.NewTurn{
		LeadID:            leadID,
		AccountID:         accountID,
		Content:           content,
		Sender:            domain.SenderLead,
		IsTransferRequest: signal.TransferRequested,
	})
	if err != nil {
		log.DatabaseError("append_lead_turn", err)
		return Exchange{}, apperr.Wrap(apperr.KindInternal, "failed to record message", err).WithOp(op)
	}

	exchange := Exchange{LeadTurn: leadTurn, Lead: lead, Signal: signal}

	modeBefore := lead.Mode
	patch := domain.Evaluate(lead.Mode, signal)
	if !patch.IsEmpty() {
		updated, err := c.store.UpdateLead(ctx, leadID, accountID, patch)
		if err != nil {
			log.DatabaseError("update_lead", err)
			return exchange, apperr.Wrap(apperr.KindUnavailable, "message recorded but lead update failed, try again", err).WithOp(op)
		}
		exchange.Lead = updated
	}

	if patch.EntersHandoff(modeBefore) {
		exchange.HandoffTriggered = true
		c.publishHandoff(ctx, exchange.Lead, events.HandoffReasonLeadRequest)
	}

	if !c.autoResponseEnabled(ctx, accountID) {
		return exchange, nil
	}

	if signal.TransferRequested && modeBefore.AutoReplies() {
		ack, err := c.appendAITurn(ctx, exchange.Lead, HandoffAcknowledgement, true)
		if err != nil {
			log.DatabaseError("append_handoff_ack", err)
			return exchange, apperr.Wrap(apperr.KindInternal, "failed to record reply", err).WithOp(op)
		}
		exchange.Reply = &ack
		return exchange, nil
	}

	if !exchange.Lead.Mode.AutoReplies() {
		return exchange, nil
	}

	reply, err := c.generate(ctx, exchange.Lead, leadTurn)
	if err != nil {
		log.Warn("reply generation failed, sending fallback", "error", err)
		fallback, err := c.appendAITurn(ctx, exchange.Lead, FallbackReply, false)
		if err != nil {
			log.DatabaseError("append_fallback_turn", err)
			return exchange, apperr.Wrap(apperr.KindInternal, "failed to record reply", err).WithOp(op)
		}
		exchange.Reply = &fallback
		exchange.UsedFallback = true
		return exchange, nil
	}

	replySignal := c.classifier.InspectReply(reply)
	exchange.Signal.AISuggestsTransfer = replySignal.AISuggestsTransfer

	if replySignal.AISuggestsTransfer {
		handoff := domain.Evaluate(exchange.Lead.Mode, replySignal)
		if handoff.Mode != nil {
			updated, err := c.store.UpdateLead(ctx, leadID, accountID, handoff)
			if err != nil {
				log.DatabaseError("update_lead_handoff", err)
				return exchange, apperr.Wrap(apperr.KindUnavailable, "reply generated but hand-off could not be recorded, try again", err).WithOp(op)
			}
			exchange.Lead = updated
			exchange.HandoffTriggered = true
			c.publishHandoff(ctx, exchange.Lead, events.HandoffReasonAssistantOffer)
		}
	}

	aiTurn, err := c.appendAITurn(ctx, exchange.Lead, reply, signal.TransferRequested || replySignal.AISuggestsTransfer)
	if err != nil {
		log.DatabaseError("append_ai_turn", err)
		return exchange, apperr.Wrap(apperr.KindInternal, "failed to record reply", err).WithOp(op)
	}
	exchange.Reply = &aiTurn
	exchange.Generated = true
	return exchange, nil
}

// PauseAI stops automated replies. A pending transfer request stays pending.
func (c *Controller) PauseAI(ctx context.Context, accountID, leadID uuid.UUID) (domain.Lead, error) {
	lead, changed, err := c.switchMode(ctx, accountID, leadID, domain.AttendanceMode.Paused)
	if err != nil || !changed {
		return lead, err
	}
	c.log.WithContext(ctx).WithLead(leadID.String()).Info("assistant paused", "mode", lead.Mode)
	c.bus.Publish(ctx, events.AIPaused{BaseEvent: events.NewBaseEvent(), LeadID: leadID, AccountID: accountID})
	return lead, nil
}

// ResumeAI hands the lead back to the assistant and clears any transfer request.
func (c *Controller) ResumeAI(ctx context.Context, accountID, leadID uuid.UUID) (domain.Lead, error) {
	var before domain.AttendanceMode
	lead, changed, err := c.switchMode(ctx, accountID, leadID, func(m domain.AttendanceMode) domain.AttendanceMode {
		before = m
		return m.Resumed()
	})
	if err != nil || !changed {
		return lead, err
	}
	c.log.WithContext(ctx).WithLead(leadID.String()).Info("assistant resumed", "previous_mode", before)
	c.bus.Publish(ctx, events.AIResumed{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		AccountID:  accountID,
		WasHandoff: before == domain.ModeHumanRequested,
	})
	return lead, nil
}

// PostAgentMessage appends a turn written by a human operator. It is never
// classified and never answered.
func (c *Controller) PostAgentMessage(ctx context.Context, accountID, leadID uuid.UUID, message string) (domain.Turn, error) {
	const op = "conversation.PostAgentMessage"

	content := strings.TrimSpace(message)
	if content == "" {
		return domain.Turn{}, apperr.Validation("message is required").WithOp(op)
	}

	unlock, err := c.acquire(ctx, leadID)
	if err != nil {
		return domain.Turn{}, err
	}
	defer c.release(ctx, leadID, unlock)

	if _, err := c.getLead(ctx, accountID, leadID); err != nil {
		return domain.Turn{}, err
	}

	turn, err := c.store.AppendTurn(ctx, domain.NewTurn{
		LeadID:    leadID,
		AccountID: accountID,
		Content:   content,
		Sender:    domain.SenderAgent,
	})
	if err != nil {
		c.log.WithContext(ctx).DatabaseError("append_agent_turn", err)
		return domain.Turn{}, apperr.Wrap(apperr.KindInternal, "failed to record message", err).WithOp(op)
	}
	return turn, nil
}

func (c *Controller) switchMode(ctx context.Context, accountID, leadID uuid.UUID, next func(domain.AttendanceMode) domain.AttendanceMode) (domain.Lead, bool, error) {
	unlock, err := c.acquire(ctx, leadID)
	if err != nil {
		return domain.Lead{}, false, err
	}
	defer c.release(ctx, leadID, unlock)

	lead, err := c.getLead(ctx, accountID, leadID)
	if err != nil {
		return domain.Lead{}, false, err
	}

	mode := next(lead.Mode)
	if mode == lead.Mode {
		return lead, false, nil
	}

	updated, err := c.store.UpdateLead(ctx, leadID, accountID, domain.Patch{Mode: &mode})
	if err != nil {
		c.log.WithContext(ctx).DatabaseError("set_attendance_mode", err)
		return domain.Lead{}, false, apperr.Wrap(apperr.KindUnavailable, "failed to update attendance mode, try again", err)
	}
	return updated, true, nil
}

func (c *Controller) generate(ctx context.Context, lead domain.Lead, leadTurn domain.Turn) (string, error) {
	if c.generator == nil {
		return "", errors.New("no reply generator configured")
	}

	history, err := c.store.RecentTurns(ctx, lead.ID, lead.AccountID, c.opts.HistoryLimit+1)
	if err != nil {
		c.log.WithContext(ctx).WithLead(lead.ID.String()).Warn("could not load conversation history", "error", err)
		history = nil
	}

	genCtx, cancel := context.WithTimeout(ctx, c.opts.ReplyTimeout)
	defer cancel()

	reply, err := c.generator.GenerateReply(genCtx, domain.ReplyRequest{
		LeadID:           lead.ID,
		Message:          leadTurn.Content,
		LeadName:         lead.Name,
		DeclaredInterest: lead.Interest,
		History:          priorTurns(history, leadTurn.ID, c.opts.HistoryLimit),
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New("reply generator returned empty text")
	}
	return reply, nil
}

// priorTurns drops the message being answered and keeps at most limit turns.
func priorTurns(turns []domain.Turn, current uuid.UUID, limit int) []domain.Turn {
	out := make([]domain.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.ID != current {
			out = append(out, turn)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// autoResponseEnabled falls back to answering when the preference cannot be read.
func (c *Controller) autoResponseEnabled(ctx context.Context, accountID uuid.UUID) bool {
	if c.opts.Settings == nil {
		return true
	}
	enabled, err := c.opts.Settings.AutoResponseEnabled(ctx, accountID)
	if err != nil {
		c.log.WithContext(ctx).Warn("account settings unavailable, auto-response stays on", "error", err, "account_id", accountID)
		return true
	}
	return enabled
}

func (c *Controller) appendAITurn(ctx context.Context, lead domain.Lead, content string, transfer bool) (domain.Turn, error) {
	return c.store.AppendTurn(ctx, domain.NewTurn{
		LeadID:            lead.ID,
		AccountID:         lead.AccountID,
		Content:           content,
		Sender:            domain.SenderAI,
		IsTransferRequest: transfer,
	})
}

func (c *Controller) publishHandoff(ctx context.Context, lead domain.Lead, reason string) {
	c.log.WithContext(ctx).Handoff(lead.ID.String(), reason)
	c.bus.Publish(ctx, events.NewHandoffRequested(lead.ID, lead.AccountID, lead.Name, reason))
}

func (c *Controller) getLead(ctx context.Context, accountID, leadID uuid.UUID) (domain.Lead, error) {
	lead, err := c.store.GetLead(ctx, leadID, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		c.log.WithContext(ctx).DatabaseError("get_lead", err)
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "failed to load lead, try again", err)
	}
	return lead, nil
}

func (c *Controller) acquire(ctx context.Context, leadID uuid.UUID) (lock.Unlock, error) {
	unlock, err := c.locker.Acquire(ctx, lockKey(leadID))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "lead is busy, try again", err)
	}
	return unlock, nil
}

func (c *Controller) release(ctx context.Context, leadID uuid.UUID, unlock lock.Unlock) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		c.log.WithContext(ctx).WithLead(leadID.String()).Warn("lead lock release failed", "error", err)
	}
}

func lockKey(leadID uuid.UUID) string {
	return "lead:" + leadID.String()
}
