package handler

import (
	"context"
	"net/http"

	"imob_crm_backend/internal/leads/conversation"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/management"
	"imob_crm_backend/internal/leads/transport"
	"imob_crm_backend/platform/httpkit"
	"imob_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead ID"
)

// Conversation is the part of the hand-off controller the handler drives.
type Conversation interface {
	ProcessInbound(ctx context.Context, accountID, leadID uuid.UUID, message string) (conversation.Exchange, error)
	PostAgentMessage(ctx context.Context, accountID, leadID uuid.UUID, message string) (domain.Turn, error)
	PauseAI(ctx context.Context, accountID, leadID uuid.UUID) (domain.Lead, error)
	ResumeAI(ctx context.Context, accountID, leadID uuid.UUID) (domain.Lead, error)
}

type Handler struct {
	mgmt *management.Service
	conv Conversation
	val  *validator.Validator
}

func New(mgmt *management.Service, conv Conversation, val *validator.Validator) *Handler {
	return &Handler{mgmt: mgmt, conv: conv, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	// Conversation
	rg.GET("/:id/messages", h.ListMessages)
	rg.POST("/:id/messages", h.PostLeadMessage)
	rg.POST("/:id/agent-messages", h.PostAgentMessage)
	rg.POST("/:id/ai/pause", h.PauseAI)
	rg.POST("/:id/ai/resume", h.ResumeAI)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	lead, err := h.mgmt.Create(c.Request.Context(), accountID(c), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.mgmt.GetByID(c.Request.Context(), accountID(c), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	lead, err := h.mgmt.Update(c.Request.Context(), accountID(c), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	if err := h.mgmt.Delete(c.Request.Context(), accountID(c), id); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return
	}

	result, err := h.mgmt.List(c.Request.Context(), accountID(c), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ListMessages(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	result, err := h.mgmt.ListMessages(c.Request.Context(), accountID(c), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// PostLeadMessage records a message written by the lead and returns the exchange.
func (h *Handler) PostLeadMessage(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.MessageRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	exchange, err := h.conv.ProcessInbound(c.Request.Context(), accountID(c), id, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, management.ToExchangeResponse(exchange))
}

// PostAgentMessage records a message written by an operator.
func (h *Handler) PostAgentMessage(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.MessageRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	turn, err := h.conv.PostAgentMessage(c.Request.Context(), accountID(c), id, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, management.ToTurnResponse(turn))
}

func (h *Handler) PauseAI(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.conv.PauseAI(c.Request.Context(), accountID(c), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, management.ToLeadResponse(lead))
}

func (h *Handler) ResumeAI(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.conv.ResumeAI(c.Request.Context(), accountID(c), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, management.ToLeadResponse(lead))
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return false
	}
	return true
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func accountID(c *gin.Context) uuid.UUID {
	return httpkit.GetIdentity(c).AccountID()
}
