package settings

import (
	"context"
	"net/http"
	"time"

	"imob_crm_backend/platform/apperr"
	"imob_crm_backend/platform/httpkit"
	"imob_crm_backend/platform/logger"
	"imob_crm_backend/platform/sanitize"
	"imob_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Store is the persistence the settings endpoints need.
type Store interface {
	Get(ctx context.Context, accountID uuid.UUID) (AISettings, error)
	Upsert(ctx context.Context, accountID uuid.UUID, patch Patch) (AISettings, error)
}

// UpdateRequest is the body of PUT /settings/ai.
type UpdateRequest struct {
	AutoResponse       *bool   `json:"autoResponse,omitempty"`
	ScoreQualification *bool   `json:"scoreQualification,omitempty"`
	WelcomeMessage     *string `json:"welcomeMessage,omitempty" validate:"omitempty,max=1000"`
}

// Response is the JSON view of AISettings.
type Response struct {
	AutoResponse       bool       `json:"autoResponse"`
	ScoreQualification bool       `json:"scoreQualification"`
	WelcomeMessage     *string    `json:"welcomeMessage,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

type Handler struct {
	store Store
	val   *validator.Validator
	log   *logger.Logger
}

func NewHandler(store Store, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{store: store, val: val, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ai", h.Get)
	rg.PUT("/ai", h.Update)
}

// Get returns the account's assistant settings.
// GET /api/v1/settings/ai
func (h *Handler) Get(c *gin.Context) {
	s, err := h.store.Get(c.Request.Context(), httpkit.GetIdentity(c).AccountID())
	if err != nil {
		h.log.WithContext(c.Request.Context()).DatabaseError("get_ai_settings", err)
		httpkit.HandleError(c, apperr.Wrap(apperr.KindUnavailable, "failed to load settings, try again", err))
		return
	}
	httpkit.OK(c, toResponse(s))
}

// Update merges the given fields into the account's assistant settings.
// PUT /api/v1/settings/ai
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", validator.Fields(err))
		return
	}

	patch := Patch{
		AutoResponse:       req.AutoResponse,
		ScoreQualification: req.ScoreQualification,
		WelcomeMessage:     sanitize.TextPtr(req.WelcomeMessage),
	}

	s, err := h.store.Upsert(c.Request.Context(), httpkit.GetIdentity(c).AccountID(), patch)
	if err != nil {
		h.log.WithContext(c.Request.Context()).DatabaseError("upsert_ai_settings", err)
		httpkit.HandleError(c, apperr.Wrap(apperr.KindUnavailable, "failed to save settings, try again", err))
		return
	}
	httpkit.OK(c, toResponse(s))
}

func toResponse(s AISettings) Response {
	return Response{
		AutoResponse:       s.AutoResponse,
		ScoreQualification: s.ScoreQualification,
		WelcomeMessage:     s.WelcomeMessage,
		UpdatedAt:          s.UpdatedAt,
	}
}
