package transport

import (
	"time"

	"imob_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	Name     string        `json:"name" validate:"required,min=1,max=200"`
	Email    string        `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone    string        `json:"phone,omitempty" validate:"omitempty,min=5,max=30"`
	Source   domain.Source `json:"source" validate:"required,oneof=facebook instagram google olx site whatsapp"`
	Status   domain.Status `json:"status,omitempty" validate:"omitempty,oneof=novo contato visita proposta fechado perdido"`
	Budget   string        `json:"budget,omitempty" validate:"max=100"`
	Interest string        `json:"interest,omitempty" validate:"max=500"`
	Notes    string        `json:"notes,omitempty" validate:"max=2000"`
}

type UpdateLeadRequest struct {
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string        `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone    *string        `json:"phone,omitempty" validate:"omitempty,min=5,max=30"`
	Source   *domain.Source `json:"source,omitempty" validate:"omitempty,oneof=facebook instagram google olx site whatsapp"`
	Status   *domain.Status `json:"status,omitempty" validate:"omitempty,oneof=novo contato visita proposta fechado perdido"`
	Interest *string        `json:"interest,omitempty" validate:"omitempty,max=500"`
	Notes    *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ListLeadsRequest struct {
	Status      *domain.Status         `form:"status" validate:"omitempty,oneof=novo contato visita proposta fechado perdido"`
	Temperature *domain.Temperature    `form:"temperature" validate:"omitempty,oneof=cold warm hot"`
	Source      *domain.Source         `form:"source" validate:"omitempty,oneof=facebook instagram google olx site whatsapp"`
	Mode        *domain.AttendanceMode `form:"mode" validate:"omitempty,oneof=AI_ACTIVE HUMAN_REQUESTED HUMAN_MANUAL"`
	Search      string                 `form:"search" validate:"max=100"`
	Page        int                    `form:"page" validate:"omitempty,min=1"`
	PageSize    int                    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy      string                 `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt name score temperature status"`
	SortOrder   string                 `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// MessageRequest is a chat message body, used for both lead and agent turns.
type MessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// Response DTOs
type LeadResponse struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	Email             *string               `json:"email,omitempty"`
	Phone             *string               `json:"phone,omitempty"`
	Source            domain.Source         `json:"source"`
	Status            domain.Status         `json:"status"`
	Temperature       domain.Temperature    `json:"temperature"`
	Score             int                   `json:"score"`
	Budget            *string               `json:"budget,omitempty"`
	Interest          *string               `json:"interest,omitempty"`
	Notes             *string               `json:"notes,omitempty"`
	Mode              domain.AttendanceMode `json:"mode"`
	AIActive          bool                  `json:"aiActive"`
	RequestedHuman    bool                  `json:"requestedHuman"`
	AIQualified       bool                  `json:"aiQualified"`
	HandoffNotifiedAt *time.Time            `json:"handoffNotifiedAt,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type TurnResponse struct {
	ID                uuid.UUID     `json:"id"`
	LeadID            uuid.UUID     `json:"leadId"`
	Content           string        `json:"content"`
	Sender            domain.Sender `json:"sender"`
	IsAI              bool          `json:"isAi"`
	IsTransferRequest bool          `json:"isTransferRequest"`
	CreatedAt         time.Time     `json:"createdAt"`
}

type TurnListResponse struct {
	Items []TurnResponse `json:"items"`
}

// ExchangeResponse reports what one inbound message did to the conversation.
type ExchangeResponse struct {
	LeadTurn         TurnResponse  `json:"leadTurn"`
	Reply            *TurnResponse `json:"reply,omitempty"`
	Lead             LeadResponse  `json:"lead"`
	Signal           domain.Signal `json:"signal"`
	Generated        bool          `json:"generated"`
	UsedFallback     bool          `json:"usedFallback"`
	HandoffTriggered bool          `json:"handoffTriggered"`
}
