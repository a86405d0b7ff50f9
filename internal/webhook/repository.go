// Package webhook provides the inbound lead intake bounded context.
// It handles webhook key management, portal counters and lead capture from external portals.
package webhook

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"imob_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("webhook API key not found")

const apiKeyColumns = "id, account_id, name, key_hash, key_prefix, is_active, last_used_at, created_at, updated_at"

// APIKey is a webhook secret stored by hash.
type APIKey struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Name       string
	KeyHash    string
	KeyPrefix  string
	IsActive   bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PortalIntegration counts the leads a portal delivered to an account.
type PortalIntegration struct {
	AccountID  uuid.UUID
	Source     domain.Source
	LeadsCount int
	LastSync   *time.Time
	CreatedAt  time.Time
}

// Repository provides data access for webhook keys and portal counters.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey creates a new random API key and returns the plaintext key and its hash.
// The plaintext key is returned only once; only the hash is stored.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = "whk_" + hex.EncodeToString(bytes)
	hash = HashKey(plaintext)
	prefix = plaintext[:12] // "whk_" + 8 hex chars
	return plaintext, hash, prefix, nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

func (r *Repository) Create(ctx context.Context, accountID uuid.UUID, name string, keyHash string, keyPrefix string) (APIKey, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO webhook_api_keys (account_id, name, key_hash, key_prefix)
		VALUES ($1, $2, $3, $4)
		RETURNING `+apiKeyColumns,
		accountID, name, keyHash, keyPrefix,
	)
	return scanAPIKey(row)
}

// GetByHash retrieves an active API key by its hash.
func (r *Repository) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+`
		FROM webhook_api_keys
		WHERE key_hash = $1 AND is_active = true
	`, keyHash)
	return scanAPIKey(row)
}

// ListByAccount returns all API keys for an account, newest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apiKeyColumns+`
		FROM webhook_api_keys
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Revoke deactivates an API key.
func (r *Repository) Revoke(ctx context.Context, keyID uuid.UUID, accountID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_api_keys SET is_active = false, updated_at = now()
		WHERE id = $1 AND account_id = $2
	`, keyID, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

func (r *Repository) TouchLastUsed(ctx context.Context, keyID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE webhook_api_keys SET last_used_at = $2 WHERE id = $1`, keyID, at)
	return err
}

// IncrementPortal counts one delivered lead for the account's portal, creating the row on first use.
func (r *Repository) IncrementPortal(ctx context.Context, accountID uuid.UUID, source domain.Source, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO portal_integrations (account_id, source, leads_count, last_sync)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (account_id, source)
		DO UPDATE SET leads_count = portal_integrations.leads_count + 1, last_sync = EXCLUDED.last_sync
	`, accountID, string(source), at)
	return err
}

func (r *Repository) ListPortals(ctx context.Context, accountID uuid.UUID) ([]PortalIntegration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, source, leads_count, last_sync, created_at
		FROM portal_integrations
		WHERE account_id = $1
		ORDER BY source
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portals := make([]PortalIntegration, 0)
	for rows.Next() {
		var p PortalIntegration
		var source string
		if err := rows.Scan(&p.AccountID, &source, &p.LeadsCount, &p.LastSync, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Source = domain.Source(source)
		portals = append(portals, p)
	}
	return portals, rows.Err()
}

func scanAPIKey(row pgx.Row) (APIKey, error) {
	var key APIKey
	err := row.Scan(
		&key.ID, &key.AccountID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.IsActive, &key.LastUsedAt, &key.CreatedAt, &key.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}
