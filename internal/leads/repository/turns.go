package repository

import (
	"context"

	"imob_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const turnColumns = `id, lead_id, account_id, content, sender, is_ai, is_transfer_request, created_at`

// AppendTurn inserts one conversation turn. Rows are never updated afterwards.
func (r *Repository) AppendTurn(ctx context.Context, turn domain.NewTurn) (domain.Turn, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_messages (lead_id, account_id, content, sender, is_ai, is_transfer_request)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+turnColumns,
		turn.LeadID, turn.AccountID, turn.Content, string(turn.Sender), turn.Sender == domain.SenderAI, turn.IsTransferRequest,
	)
	return scanTurn(row)
}

// ListTurns returns the whole conversation, oldest first.
func (r *Repository) ListTurns(ctx context.Context, leadID uuid.UUID, accountID uuid.UUID) ([]domain.Turn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+turnColumns+`
		FROM lead_messages
		WHERE lead_id = $1 AND account_id = $2
		ORDER BY created_at ASC, seq ASC
	`, leadID, accountID)
	if err != nil {
		return nil, err
	}
	return collectTurns(rows)
}

// RecentTurns returns the last limit turns, oldest first.
func (r *Repository) RecentTurns(ctx context.Context, leadID uuid.UUID, accountID uuid.UUID, limit int) ([]domain.Turn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+turnColumns+` FROM (
			SELECT `+turnColumns+`, seq
			FROM lead_messages
			WHERE lead_id = $1 AND account_id = $2
			ORDER BY created_at DESC, seq DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC, seq ASC
	`, leadID, accountID, limit)
	if err != nil {
		return nil, err
	}
	return collectTurns(rows)
}

func collectTurns(rows pgx.Rows) ([]domain.Turn, error) {
	defer rows.Close()

	turns := make([]domain.Turn, 0)
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return turns, nil
}

func scanTurn(row pgx.Row) (domain.Turn, error) {
	var (
		turn   domain.Turn
		sender string
	)
	if err := row.Scan(
		&turn.ID, &turn.LeadID, &turn.AccountID, &turn.Content, &sender, &turn.IsAI, &turn.IsTransferRequest, &turn.CreatedAt,
	); err != nil {
		return domain.Turn{}, err
	}
	turn.Sender = domain.Sender(sender)
	return turn, nil
}
