package settings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AISettings are the per-account assistant preferences.
type AISettings struct {
	AccountID          uuid.UUID
	AutoResponse       bool
	ScoreQualification bool
	WelcomeMessage     *string
	UpdatedAt          *time.Time
}

// Defaults is what an account without a stored row gets.
func Defaults(accountID uuid.UUID) AISettings {
	return AISettings{AccountID: accountID, AutoResponse: true, ScoreQualification: true}
}

// Patch carries a partial settings update; nil fields keep their value.
type Patch struct {
	AutoResponse       *bool
	ScoreQualification *bool
	WelcomeMessage     *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the stored settings, or Defaults when the account has none.
func (r *Repository) Get(ctx context.Context, accountID uuid.UUID) (AISettings, error) {
	s := AISettings{AccountID: accountID}
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT auto_response, score_qualification, welcome_message, updated_at
		FROM ai_settings
		WHERE account_id = $1`,
		accountID,
	).Scan(&s.AutoResponse, &s.ScoreQualification, &s.WelcomeMessage, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(accountID), nil
	}
	if err != nil {
		return AISettings{}, err
	}
	s.UpdatedAt = &updatedAt
	return s, nil
}

// Upsert merges patch into the stored row, creating it from the defaults.
func (r *Repository) Upsert(ctx context.Context, accountID uuid.UUID, patch Patch) (AISettings, error) {
	s := AISettings{AccountID: accountID}
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ai_settings (account_id, auto_response, score_qualification, welcome_message)
		VALUES ($1, COALESCE($2, true), COALESCE($3, true), $4)
		ON CONFLICT (account_id) DO UPDATE SET
			auto_response = COALESCE($2, ai_settings.auto_response),
			score_qualification = COALESCE($3, ai_settings.score_qualification),
			welcome_message = COALESCE($4, ai_settings.welcome_message),
			updated_at = now()
		RETURNING auto_response, score_qualification, welcome_message, updated_at`,
		accountID, patch.AutoResponse, patch.ScoreQualification, patch.WelcomeMessage,
	).Scan(&s.AutoResponse, &s.ScoreQualification, &s.WelcomeMessage, &updatedAt)
	if err != nil {
		return AISettings{}, err
	}
	s.UpdatedAt = &updatedAt
	return s, nil
}

// AutoResponseEnabled reports whether the assistant may answer leads of the account.
func (r *Repository) AutoResponseEnabled(ctx context.Context, accountID uuid.UUID) (bool, error) {
	s, err := r.Get(ctx, accountID)
	if err != nil {
		return false, err
	}
	return s.AutoResponse, nil
}
