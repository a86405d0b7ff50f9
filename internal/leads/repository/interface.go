package repository

import (
	"context"
	"time"

	"imob_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (domain.Lead, error)
	ListLeads(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
}

// LeadWriter provides operator-facing write operations.
type LeadWriter interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error)
	UpdateLeadDetails(ctx context.Context, id uuid.UUID, accountID uuid.UUID, params UpdateLeadParams) (domain.Lead, error)
	DeleteLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error
}

// QualificationWriter is the only path that changes qualification and attendance fields.
type QualificationWriter interface {
	UpdateLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID, patch domain.Patch) (domain.Lead, error)
}

// TurnStore appends to and reads the conversation log.
type TurnStore interface {
	AppendTurn(ctx context.Context, turn domain.NewTurn) (domain.Turn, error)
	ListTurns(ctx context.Context, leadID uuid.UUID, accountID uuid.UUID) ([]domain.Turn, error)
	RecentTurns(ctx context.Context, leadID uuid.UUID, accountID uuid.UUID, limit int) ([]domain.Turn, error)
}

// HandoffNotifier records that operators were alerted.
type HandoffNotifier interface {
	MarkHandoffNotified(ctx context.Context, id uuid.UUID, accountID uuid.UUID, at time.Time) error
}

// LeadsRepository composes every interface for full repository access.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	QualificationWriter
	TurnStore
	HandoffNotifier
}

var _ LeadsRepository = (*Repository)(nil)
