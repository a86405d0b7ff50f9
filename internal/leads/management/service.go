// Package management handles lead CRUD operations.
// This is a vertically sliced feature package containing service logic
// for creating, reading, updating, and deleting leads.
package management

import (
	"context"
	"errors"
	"strings"

	"imob_crm_backend/internal/events"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/repository"
	"imob_crm_backend/internal/leads/transport"
	"imob_crm_backend/platform/apperr"
	"imob_crm_backend/platform/phone"
	"imob_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository defines the data access interface needed by the management service.
// This is a consumer-driven interface - only what management needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	ListTurns(ctx context.Context, leadID uuid.UUID, accountID uuid.UUID) ([]domain.Turn, error)
}

// Service handles lead management operations (CRUD).
type Service struct {
	repo     Repository
	eventBus events.Bus
	phones   phone.Normalizer
}

// New creates a new lead management service.
func New(repo Repository, eventBus events.Bus, phones phone.Normalizer) *Service {
	return &Service{repo: repo, eventBus: eventBus, phones: phones}
}

// Create creates a new lead in automated attendance.
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.create(ctx, accountID, req, false)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead), nil
}

// CreateFromWebhook creates a lead captured by an external portal.
func (s *Service) CreateFromWebhook(ctx context.Context, accountID uuid.UUID, req transport.CreateLeadRequest) (domain.Lead, error) {
	return s.create(ctx, accountID, req, true)
}

func (s *Service) create(ctx context.Context, accountID uuid.UUID, req transport.CreateLeadRequest, viaWebhook bool) (domain.Lead, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return domain.Lead{}, apperr.Validation("name is required")
	}
	if !req.Source.Valid() {
		return domain.Lead{}, apperr.Validation("invalid source")
	}

	params := repository.CreateLeadParams{
		AccountID:   accountID,
		Name:        name,
		Email:       sanitize.Optional(strings.ToLower(req.Email)),
		Phone:       sanitize.Optional(s.phones.NormalizeE164(req.Phone)),
		Source:      req.Source,
		Status:      req.Status,
		Temperature: domain.TemperatureCold,
		Score:       domain.MinScore,
		Budget:      sanitize.Optional(req.Budget),
		Interest:    sanitize.Optional(req.Interest),
		Notes:       sanitize.Optional(req.Notes),
	}

	lead, err := s.repo.CreateLead(ctx, params)
	if err != nil {
		return domain.Lead{}, err
	}

	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		AccountID:  lead.AccountID,
		Source:     string(lead.Source),
		Name:       lead.Name,
		ViaWebhook: viaWebhook,
	})

	return lead, nil
}

// GetByID retrieves a lead by ID.
func (s *Service) GetByID(ctx context.Context, accountID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetLead(ctx, id, accountID)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return ToLeadResponse(lead), nil
}

// Update applies operator edits to contact and pipeline fields.
func (s *Service) Update(ctx context.Context, accountID, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateLeadParams{
		Source: req.Source,
		Status: req.Status,
	}
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		if name == "" {
			return transport.LeadResponse{}, apperr.Validation("name cannot be empty")
		}
		params.Name = &name
	}
	if req.Email != nil {
		params.Email = sanitize.Optional(strings.ToLower(*req.Email))
	}
	if req.Phone != nil {
		params.Phone = sanitize.Optional(s.phones.NormalizeE164(*req.Phone))
	}
	if req.Interest != nil {
		params.Interest = sanitize.Optional(*req.Interest)
	}
	if req.Notes != nil {
		params.Notes = sanitize.Optional(*req.Notes)
	}

	lead, err := s.repo.UpdateLeadDetails(ctx, id, accountID, params)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return ToLeadResponse(lead), nil
}

// Delete soft-deletes a lead.
func (s *Service) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	return mapNotFound(s.repo.DeleteLead(ctx, id, accountID))
}

// List returns a page of the account's leads.
func (s *Service) List(ctx context.Context, accountID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	leads, total, err := s.repo.ListLeads(ctx, repository.ListParams{
		AccountID:   accountID,
		Status:      req.Status,
		Temperature: req.Temperature,
		Source:      req.Source,
		Mode:        req.Mode,
		Search:      strings.TrimSpace(req.Search),
		Offset:      (req.Page - 1) * req.PageSize,
		Limit:       req.PageSize,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = ToLeadResponse(lead)
	}

	totalPages := (total + req.PageSize - 1) / req.PageSize

	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ListMessages returns the lead's conversation, oldest first.
func (s *Service) ListMessages(ctx context.Context, accountID, id uuid.UUID) (transport.TurnListResponse, error) {
	if _, err := s.repo.GetLead(ctx, id, accountID); err != nil {
		return transport.TurnListResponse{}, mapNotFound(err)
	}

	turns, err := s.repo.ListTurns(ctx, id, accountID)
	if err != nil {
		return transport.TurnListResponse{}, err
	}

	items := make([]transport.TurnResponse, len(turns))
	for i, turn := range turns {
		items[i] = ToTurnResponse(turn)
	}
	return transport.TurnListResponse{Items: items}, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}
