// Package domain holds the lead qualification and attendance rules.
// It has no persistence or transport dependencies.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Temperature is the coarse purchase-intent bucket of a lead.
type Temperature string

const (
	TemperatureCold Temperature = "cold"
	TemperatureWarm Temperature = "warm"
	TemperatureHot  Temperature = "hot"
)

func (t Temperature) Valid() bool {
	switch t {
	case TemperatureCold, TemperatureWarm, TemperatureHot:
		return true
	}
	return false
}

// Status is the commercial pipeline stage managed by operators.
type Status string

const (
	StatusNew      Status = "novo"
	StatusContact  Status = "contato"
	StatusVisit    Status = "visita"
	StatusProposal Status = "proposta"
	StatusClosed   Status = "fechado"
	StatusLost     Status = "perdido"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContact, StatusVisit, StatusProposal, StatusClosed, StatusLost:
		return true
	}
	return false
}

// Source is the channel a lead arrived through.
type Source string

const (
	SourceFacebook  Source = "facebook"
	SourceInstagram Source = "instagram"
	SourceGoogle    Source = "google"
	SourceOLX       Source = "olx"
	SourceSite      Source = "site"
	SourceWhatsApp  Source = "whatsapp"
)

func (s Source) Valid() bool {
	switch s {
	case SourceFacebook, SourceInstagram, SourceGoogle, SourceOLX, SourceSite, SourceWhatsApp:
		return true
	}
	return false
}

const (
	// MinScore and MaxScore bound Lead.Score.
	MinScore = 0
	MaxScore = 100
	// QualifiedScore is the score from which a lead counts as AI-qualified.
	QualifiedScore = 50
)

// Lead is a prospective buyer or renter tracked by an account.
type Lead struct {
	ID                uuid.UUID
	AccountID         uuid.UUID
	Name              string
	Email             *string
	Phone             *string
	Source            Source
	Status            Status
	Temperature       Temperature
	Score             int
	Budget            *string
	Interest          *string
	Notes             *string
	Mode              AttendanceMode
	AIQualified       bool
	HandoffNotifiedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewInboundLead returns the state every freshly captured lead starts in.
func NewInboundLead(accountID uuid.UUID, name string, source Source) Lead {
	return Lead{
		AccountID:   accountID,
		Name:        name,
		Source:      source,
		Status:      StatusNew,
		Temperature: TemperatureCold,
		Score:       MinScore,
		Mode:        ModeAIActive,
	}
}

// ClampScore forces score into [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
