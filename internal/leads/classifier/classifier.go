// Package classifier reads transfer intent, purchase temperature and budget
// out of free-text conversation messages.
package classifier

import (
	"regexp"
	"strings"

	"imob_crm_backend/internal/leads/domain"
)

// Classifier derives signals from text. Implementations must be pure and
// total: any string, including the empty one, yields a Signal.
type Classifier interface {
	// Classify reads an inbound lead message.
	Classify(message string) domain.Signal
	// InspectReply reads a generated reply; only AISuggestsTransfer is set.
	InspectReply(reply string) domain.Signal
}

// budgetPattern matches "500 mil", "800k", "1 milhão", "2 milhões", "3mi" and
// decimal millions like "1,5mi". Group 1 is the verbatim amount.
var budgetPattern = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])(\d{2,3}\s?(?:mil|k)|\d{1,2}(?:[.,]\d{1,2})?\s?(?:milhões|milhão|mi))(?:[^\p{L}\d]|$)`)

// KeywordClassifier matches configured cues as lower-case substrings.
type KeywordClassifier struct {
	rules Rules
}

// New creates a KeywordClassifier from rules.
func New(rules Rules) *KeywordClassifier {
	return &KeywordClassifier{rules: rules}
}

// NewDefault creates a KeywordClassifier with the built-in rules.
func NewDefault() *KeywordClassifier {
	return New(DefaultRules())
}

func (k *KeywordClassifier) Classify(message string) domain.Signal {
	var signal domain.Signal
	if strings.TrimSpace(message) == "" {
		return signal
	}

	lower := strings.ToLower(message)
	signal.TransferRequested = containsAny(lower, k.rules.Transfer)

	for _, tier := range k.rules.Tiers {
		if containsAny(lower, tier.Cues) {
			temperature := tier.Temperature
			score := tier.Score
			signal.SuggestedTemperature = &temperature
			signal.SuggestedScore = &score
			break
		}
	}

	if budget, ok := extractBudget(message); ok {
		signal.ExtractedBudget = &budget
	}
	return signal
}

func (k *KeywordClassifier) InspectReply(reply string) domain.Signal {
	return domain.Signal{
		AISuggestsTransfer: containsAny(strings.ToLower(reply), k.rules.ReplyTransfer),
	}
}

func extractBudget(message string) (string, bool) {
	match := budgetPattern.FindStringSubmatch(message)
	if match == nil {
		return "", false
	}
	return match[1], true
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

var _ Classifier = (*KeywordClassifier)(nil)
