package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a conversation turn.
type Sender string

const (
	SenderLead  Sender = "lead"
	SenderAI    Sender = "ai"
	SenderAgent Sender = "agent"
)

func (s Sender) Valid() bool {
	switch s {
	case SenderLead, SenderAI, SenderAgent:
		return true
	}
	return false
}

// Turn is one immutable entry in a lead's conversation log.
type Turn struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	AccountID         uuid.UUID
	Content           string
	Sender            Sender
	IsAI              bool
	IsTransferRequest bool
	CreatedAt         time.Time
}

// NewTurn is the input for appending a turn.
type NewTurn struct {
	LeadID            uuid.UUID
	AccountID         uuid.UUID
	Content           string
	Sender            Sender
	IsTransferRequest bool
}

// ReplyRequest is everything a reply generator gets to see.
type ReplyRequest struct {
	LeadID           uuid.UUID
	Message          string
	LeadName         string
	DeclaredInterest *string
	History          []Turn
}
