package domain

// AttendanceMode says who answers the lead.
//
// The store keeps two flags (ai_active, requested_human). Only three of
// the four combinations are meaningful; ModeFromFlags folds the fourth
// into HUMAN_REQUESTED because that flag is sticky.
type AttendanceMode string

const (
	// ModeAIActive lets the assistant answer every inbound message.
	ModeAIActive AttendanceMode = "AI_ACTIVE"
	// ModeHumanRequested means a transfer was asked for; only resume clears it.
	ModeHumanRequested AttendanceMode = "HUMAN_REQUESTED"
	// ModeHumanManual means an operator paused the assistant.
	ModeHumanManual AttendanceMode = "HUMAN_MANUAL"
)

func (m AttendanceMode) Valid() bool {
	switch m {
	case ModeAIActive, ModeHumanRequested, ModeHumanManual:
		return true
	}
	return false
}

// AutoReplies reports whether inbound messages get an automated answer.
func (m AttendanceMode) AutoReplies() bool {
	return m == ModeAIActive
}

// ModeFromFlags decodes the persisted flag pair.
func ModeFromFlags(aiActive, requestedHuman bool) AttendanceMode {
	switch {
	case requestedHuman:
		return ModeHumanRequested
	case aiActive:
		return ModeAIActive
	default:
		return ModeHumanManual
	}
}

// Flags encodes the mode as the persisted (ai_active, requested_human) pair.
func (m AttendanceMode) Flags() (aiActive bool, requestedHuman bool) {
	switch m {
	case ModeHumanRequested:
		return false, true
	case ModeHumanManual:
		return false, false
	default:
		return true, false
	}
}

// AfterTransferRequest is the mode once a transfer signal has been seen.
// A paused lead asking for a person is surfaced the same way.
func (m AttendanceMode) AfterTransferRequest() AttendanceMode {
	return ModeHumanRequested
}

// Paused switches the assistant off without touching the transfer latch.
func (m AttendanceMode) Paused() AttendanceMode {
	if m == ModeHumanRequested {
		return ModeHumanRequested
	}
	return ModeHumanManual
}

// Resumed hands the conversation back to the assistant and clears the latch.
func (m AttendanceMode) Resumed() AttendanceMode {
	return ModeAIActive
}
