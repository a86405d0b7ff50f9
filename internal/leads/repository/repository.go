package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"imob_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, account_id, name, email, phone, source, status, temperature, score,
	budget, interest, notes, ai_active, requested_human, ai_qualified, handoff_notified_at,
	created_at, updated_at`

type CreateLeadParams struct {
	AccountID   uuid.UUID
	Name        string
	Email       *string
	Phone       *string
	Source      domain.Source
	Status      domain.Status
	Temperature domain.Temperature
	Score       int
	Budget      *string
	Interest    *string
	Notes       *string
}

// UpdateLeadParams carries operator edits. Qualification and attendance
// fields only change through UpdateLead.
type UpdateLeadParams struct {
	Name     *string
	Email    *string
	Phone    *string
	Source   *domain.Source
	Status   *domain.Status
	Interest *string
	Notes    *string
}

type ListParams struct {
	AccountID   uuid.UUID
	Status      *domain.Status
	Temperature *domain.Temperature
	Source      *domain.Source
	Mode        *domain.AttendanceMode
	Search      string
	Offset      int
	Limit       int
	SortBy      string
	SortOrder   string
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	status := params.Status
	if status == "" {
		status = domain.StatusNew
	}
	temperature := params.Temperature
	if temperature == "" {
		temperature = domain.TemperatureCold
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (account_id, name, email, phone, source, status, temperature, score, budget, interest, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+leadColumns,
		params.AccountID, params.Name, params.Email, params.Phone, string(params.Source), string(status),
		string(temperature), domain.ClampScore(params.Score), params.Budget, params.Interest, params.Notes,
	)
	return scanLead(row)
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
	`, id, accountID)
	return scanLead(row)
}

// UpdateLead merges patch into the stored lead in a single statement.
// Nil patch fields keep their column value and ai_qualified can only go up.
func (r *Repository) UpdateLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID, patch domain.Patch) (domain.Lead, error) {
	var temperature *string
	if patch.Temperature != nil {
		value := string(*patch.Temperature)
		temperature = &value
	}
	var aiActive, requestedHuman *bool
	if patch.Mode != nil {
		active, requested := patch.Mode.Flags()
		aiActive, requestedHuman = &active, &requested
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			temperature = COALESCE($3, temperature),
			score = COALESCE($4, score),
			budget = COALESCE($5, budget),
			ai_active = COALESCE($6, ai_active),
			requested_human = COALESCE($7, requested_human),
			ai_qualified = ai_qualified OR $8,
			updated_at = now()
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
		RETURNING `+leadColumns,
		id, accountID, temperature, patch.Score, patch.Budget, aiActive, requestedHuman, patch.MarkQualified,
	)
	return scanLead(row)
}

func (r *Repository) UpdateLeadDetails(ctx context.Context, id uuid.UUID, accountID uuid.UUID, params UpdateLeadParams) (domain.Lead, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	fields := []struct {
		enabled bool
		column  string
		value   interface{}
	}{
		{params.Name != nil, "name", derefString(params.Name)},
		{params.Email != nil, "email", params.Email},
		{params.Phone != nil, "phone", params.Phone},
		{params.Source != nil, "source", derefSource(params.Source)},
		{params.Status != nil, "status", derefStatus(params.Status)},
		{params.Interest != nil, "interest", params.Interest},
		{params.Notes != nil, "notes", params.Notes},
	}

	for _, field := range fields {
		if !field.enabled {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field.column, argIdx))
		args = append(args, field.value)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetLead(ctx, id, accountID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id, accountID)

	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $%d AND account_id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, argIdx+1, leadColumns)

	return scanLead(r.pool.QueryRow(ctx, query, args...))
}

// MarkHandoffNotified stamps the time operators were alerted about a hand-off.
func (r *Repository) MarkHandoffNotified(ctx context.Context, id uuid.UUID, accountID uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE leads SET handoff_notified_at = $3
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
	`, id, accountID, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListLeads(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads l WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM leads l
		WHERE %s
		ORDER BY %s %s, l.id
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, mapLeadSortColumn(params.SortBy), sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func (r *Repository) DeleteLead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "UPDATE leads SET deleted_at = now(), updated_at = now() WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL", id, accountID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	// Account ID is always the first filter
	whereClauses := []string{"l.account_id = $1", "l.deleted_at IS NULL"}
	args := []interface{}{params.AccountID}
	argIdx := 2

	addEquals := func(column string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != nil {
		addEquals("l.status", string(*params.Status))
	}
	if params.Temperature != nil {
		addEquals("l.temperature", string(*params.Temperature))
	}
	if params.Source != nil {
		addEquals("l.source", string(*params.Source))
	}
	if params.Mode != nil {
		whereClauses = append(whereClauses, modeCondition(*params.Mode))
	}
	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(l.name ILIKE $%d OR l.email ILIKE $%d OR l.phone ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func modeCondition(mode domain.AttendanceMode) string {
	switch mode {
	case domain.ModeHumanRequested:
		return "l.requested_human"
	case domain.ModeHumanManual:
		return "(NOT l.ai_active AND NOT l.requested_human)"
	default:
		return "(l.ai_active AND NOT l.requested_human)"
	}
}

func mapLeadSortColumn(sortBy string) string {
	switch sortBy {
	case "name":
		return "l.name"
	case "score":
		return "l.score"
	case "temperature":
		return "l.temperature"
	case "status":
		return "l.status"
	case "updatedAt":
		return "l.updated_at"
	default:
		return "l.created_at"
	}
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead           domain.Lead
		source         string
		status         string
		temperature    string
		aiActive       bool
		requestedHuman bool
	)
	err := row.Scan(
		&lead.ID, &lead.AccountID, &lead.Name, &lead.Email, &lead.Phone, &source, &status, &temperature, &lead.Score,
		&lead.Budget, &lead.Interest, &lead.Notes, &aiActive, &requestedHuman, &lead.AIQualified, &lead.HandoffNotifiedAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}

	lead.Source = domain.Source(source)
	lead.Status = domain.Status(status)
	lead.Temperature = domain.Temperature(temperature)
	lead.Mode = domain.ModeFromFlags(aiActive, requestedHuman)
	return lead, nil
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefSource(value *domain.Source) string {
	if value == nil {
		return ""
	}
	return string(*value)
}

func derefStatus(value *domain.Status) string {
	if value == nil {
		return ""
	}
	return string(*value)
}
