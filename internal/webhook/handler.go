package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"imob_crm_backend/platform/httpkit"
	"imob_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errNoAccountContext = "missing account context"
	errInvalidRequest   = "invalid request body"
	errValidation       = "validation error"
)

// KeyStore is the key management the admin endpoints need.
type KeyStore interface {
	Create(ctx context.Context, accountID uuid.UUID, name string, keyHash string, keyPrefix string) (APIKey, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]APIKey, error)
	Revoke(ctx context.Context, keyID uuid.UUID, accountID uuid.UUID) error
	ListPortals(ctx context.Context, accountID uuid.UUID) ([]PortalIntegration, error)
}

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
	keys    KeyStore
	val     *validator.Validator
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, keys KeyStore, val *validator.Validator) *Handler {
	return &Handler{service: service, keys: keys, val: val}
}

// ---- Lead intake (public, webhook-secret authenticated) ----

// HandleIntake captures a lead delivered by a portal.
// POST /api/v1/webhook/leads
func (h *Handler) HandleIntake(c *gin.Context) {
	accountID, ok := webhookAccountID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, errNoAccountContext, nil)
		return
	}

	var req IntakeRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	resp, err := h.service.Intake(c.Request.Context(), accountID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(intakeStatus(resp), resp)
}

func intakeStatus(resp IntakeResponse) int {
	if resp.Retryable {
		return http.StatusServiceUnavailable
	}
	return http.StatusCreated
}

// ---- Admin API Key Management (JWT authenticated) ----

// CreateAPIKeyRequest is the request body for creating a new API key.
type CreateAPIKeyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// APIKeyResponse is returned when listing or creating API keys.
type APIKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"keyPrefix"`
	IsActive   bool       `json:"isActive"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CreateAPIKeyResponse includes the plaintext key (shown only once).
type CreateAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

// PortalResponse is one row of the portal counters.
type PortalResponse struct {
	Source     string     `json:"source"`
	LeadsCount int        `json:"leadsCount"`
	LastSync   *time.Time `json:"lastSync,omitempty"`
}

// HandleCreateAPIKey creates a new webhook API key.
// POST /api/v1/admin/webhook/keys
func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate API key", nil)
		return
	}

	key, err := h.keys.Create(c.Request.Context(), accountID(c), req.Name, hash, prefix)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		APIKeyResponse: toAPIKeyResponse(key),
		Key:            plaintext,
	})
}

// HandleListAPIKeys lists all webhook API keys for the account.
// GET /api/v1/admin/webhook/keys
func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	keys, err := h.keys.ListByAccount(c.Request.Context(), accountID(c))
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]APIKeyResponse, len(keys))
	for i, k := range keys {
		result[i] = toAPIKeyResponse(k)
	}

	httpkit.OK(c, result)
}

// HandleRevokeAPIKey deactivates a webhook API key.
// DELETE /api/v1/admin/webhook/keys/:keyId
func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key ID", nil)
		return
	}

	if err := h.keys.Revoke(c.Request.Context(), keyID, accountID(c)); err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			httpkit.Error(c, http.StatusNotFound, "API key not found", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key revoked"})
}

// HandleListPortals returns per-portal lead counters.
// GET /api/v1/integrations/portals
func (h *Handler) HandleListPortals(c *gin.Context) {
	portals, err := h.keys.ListPortals(c.Request.Context(), accountID(c))
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]PortalResponse, len(portals))
	for i, p := range portals {
		result[i] = PortalResponse{Source: string(p.Source), LeadsCount: p.LeadsCount, LastSync: p.LastSync}
	}

	httpkit.OK(c, result)
}

func toAPIKeyResponse(key APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:         key.ID,
		Name:       key.Name,
		KeyPrefix:  key.KeyPrefix,
		IsActive:   key.IsActive,
		LastUsedAt: key.LastUsedAt,
		CreatedAt:  key.CreatedAt,
	}
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, validator.Fields(err))
		return false
	}
	return true
}

func accountID(c *gin.Context) uuid.UUID {
	return httpkit.GetIdentity(c).AccountID()
}
