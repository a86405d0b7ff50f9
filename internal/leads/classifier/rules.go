package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"imob_crm_backend/internal/leads/domain"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rules is the keyword configuration of a KeywordClassifier.
type Rules struct {
	Transfer      []string `yaml:"transfer"`
	ReplyTransfer []string `yaml:"reply_transfer"`
	Tiers         []Tier   `yaml:"tiers"`
}

// Tier maps a set of cues to a temperature and score.
type Tier struct {
	Name        string             `yaml:"name"`
	Temperature domain.Temperature `yaml:"temperature"`
	Score       int                `yaml:"score"`
	Cues        []string           `yaml:"cues"`
}

// DefaultRules returns the built-in Portuguese rule set.
func DefaultRules() Rules {
	rules, err := ParseRules(defaultRules)
	if err != nil {
		panic("classifier: embedded rules are invalid: " + err.Error())
	}
	return rules
}

// LoadRules reads rules from path, or returns DefaultRules when path is empty.
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read classifier rules: %w", err)
	}
	return ParseRules(raw)
}

// ParseRules decodes and validates a YAML rule set. Cues are lower-cased.
func ParseRules(raw []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse classifier rules: %w", err)
	}

	rules.Transfer = normalizeCues(rules.Transfer)
	rules.ReplyTransfer = normalizeCues(rules.ReplyTransfer)
	if len(rules.Transfer) == 0 {
		return Rules{}, fmt.Errorf("classifier rules: transfer cues are required")
	}

	for i := range rules.Tiers {
		tier := &rules.Tiers[i]
		tier.Cues = normalizeCues(tier.Cues)
		if !tier.Temperature.Valid() {
			return Rules{}, fmt.Errorf("classifier rules: tier %q has invalid temperature %q", tier.Name, tier.Temperature)
		}
		if tier.Score < domain.MinScore || tier.Score > domain.MaxScore {
			return Rules{}, fmt.Errorf("classifier rules: tier %q score %d out of range", tier.Name, tier.Score)
		}
		if len(tier.Cues) == 0 {
			return Rules{}, fmt.Errorf("classifier rules: tier %q has no cues", tier.Name)
		}
	}
	return rules, nil
}

func normalizeCues(cues []string) []string {
	out := make([]string, 0, len(cues))
	for _, cue := range cues {
		cue = strings.ToLower(strings.TrimSpace(cue))
		if cue != "" {
			out = append(out, cue)
		}
	}
	return out
}
