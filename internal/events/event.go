// Package events holds the lead lifecycle events. Modules import the bus types
// from here so they depend on one events package.
package events

import (
	"time"

	"imob_crm_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// Hand-off reasons carried by HandoffRequested.
const (
	HandoffReasonLeadRequest    = "lead_request"
	HandoffReasonAssistantOffer = "assistant_offer"
)

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	AccountID  uuid.UUID `json:"accountId"`
	Source     string    `json:"source"`
	Name       string    `json:"name"`
	ViaWebhook bool      `json:"viaWebhook"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// HandoffRequested is published when a lead enters HUMAN_REQUESTED.
type HandoffRequested struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	AccountID uuid.UUID `json:"accountId"`
	LeadName  string    `json:"leadName"`
	Reason    string    `json:"reason"`
}

func (e HandoffRequested) EventName() string { return "leads.handoff.requested" }

// AIPaused is published when an operator pauses the assistant for a lead.
type AIPaused struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	AccountID uuid.UUID `json:"accountId"`
}

func (e AIPaused) EventName() string { return "leads.ai.paused" }

// AIResumed is published when an operator hands a lead back to the assistant.
type AIResumed struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	AccountID uuid.UUID `json:"accountId"`
	// WasHandoff is true when the resume cleared a transfer request.
	WasHandoff bool `json:"wasHandoff"`
}

func (e AIResumed) EventName() string { return "leads.ai.resumed" }

// NewHandoffRequested builds a HandoffRequested stamped with the current time.
func NewHandoffRequested(leadID, accountID uuid.UUID, leadName, reason string) HandoffRequested {
	return HandoffRequested{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		LeadID:    leadID,
		AccountID: accountID,
		LeadName:  leadName,
		Reason:    reason,
	}
}
