package domain

// Signal is what the classifier read in one piece of text. Nil pointers
// mean "no opinion" and never overwrite stored values.
type Signal struct {
	TransferRequested    bool         `json:"transferRequested"`
	SuggestedTemperature *Temperature `json:"suggestedTemperature"`
	SuggestedScore       *int         `json:"suggestedScore"`
	ExtractedBudget      *string      `json:"extractedBudget"`
	AISuggestsTransfer   bool         `json:"aiSuggestsTransfer"`
}

// WantsTransfer reports whether either side asked for a human.
func (s Signal) WantsTransfer() bool {
	return s.TransferRequested || s.AISuggestsTransfer
}

// Patch is a sparse lead update. Nil fields are left untouched.
type Patch struct {
	Temperature   *Temperature
	Score         *int
	Budget        *string
	Mode          *AttendanceMode
	MarkQualified bool
}

// IsEmpty reports whether applying p would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Temperature == nil && p.Score == nil && p.Budget == nil && p.Mode == nil && !p.MarkQualified
}

// Evaluate turns a signal into the update for a lead currently in mode.
func Evaluate(mode AttendanceMode, s Signal) Patch {
	p := Patch{
		Temperature: s.SuggestedTemperature,
		Budget:      s.ExtractedBudget,
	}
	if s.SuggestedScore != nil {
		score := ClampScore(*s.SuggestedScore)
		p.Score = &score
		p.MarkQualified = score >= QualifiedScore
	}
	if s.WantsTransfer() {
		if next := mode.AfterTransferRequest(); next != mode {
			p.Mode = &next
		}
	}
	return p
}

// Apply returns lead with p merged in.
func (p Patch) Apply(lead Lead) Lead {
	if p.Temperature != nil {
		lead.Temperature = *p.Temperature
	}
	if p.Score != nil {
		lead.Score = *p.Score
	}
	if p.Budget != nil {
		budget := *p.Budget
		lead.Budget = &budget
	}
	if p.Mode != nil {
		lead.Mode = *p.Mode
	}
	lead.AIQualified = lead.AIQualified || p.MarkQualified
	return lead
}

// EntersHandoff reports whether p moves a lead in mode into HUMAN_REQUESTED.
func (p Patch) EntersHandoff(mode AttendanceMode) bool {
	return p.Mode != nil && *p.Mode == ModeHumanRequested && mode != ModeHumanRequested
}
