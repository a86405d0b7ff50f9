package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"imob_crm_backend/internal/leads/domain"
)

func TestClassifyTransferCues(t *testing.T) {
	c := NewDefault()
	cases := []struct {
		message string
		want    bool
	}{
		{"Quero falar com um corretor, por favor.", true},
		{"Posso falar com alguém?", true},
		{"Prefiro um ATENDENTE", true},
		{"tem algum humano aí?", true},
		{"O atendimento de vocês é ótimo", true},
		{"Qual o valor do condomínio?", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			if got := c.Classify(tc.message).TransferRequested; got != tc.want {
				t.Fatalf("TransferRequested(%q) = %v, want %v", tc.message, got, tc.want)
			}
		})
	}
}

func TestClassifyTemperatureTiers(t *testing.T) {
	c := NewDefault()
	cases := []struct {
		name      string
		message   string
		wantTemp  domain.Temperature
		wantScore int
	}{
		{"urgency", "Preciso agora de um apartamento", domain.TemperatureHot, 80},
		{"interest", "Gostaria de ver a casa", domain.TemperatureWarm, 50},
		{"low commitment", "Estou apenas pesquisando por enquanto.", domain.TemperatureCold, 20},
		{"urgency beats interest", "estou super interessado, preciso resolver isso urgente", domain.TemperatureHot, 80},
		{"urgency beats low commitment", "só pesquisando, mas é urgente", domain.TemperatureHot, 80},
		{"interest beats low commitment", "quero algo no futuro", domain.TemperatureWarm, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := c.Classify(tc.message)
			if s.SuggestedTemperature == nil || s.SuggestedScore == nil {
				t.Fatalf("expected a suggestion for %q, got %+v", tc.message, s)
			}
			if *s.SuggestedTemperature != tc.wantTemp || *s.SuggestedScore != tc.wantScore {
				t.Fatalf("got %s/%d, want %s/%d", *s.SuggestedTemperature, *s.SuggestedScore, tc.wantTemp, tc.wantScore)
			}
		})
	}
}

func TestClassifyBudget(t *testing.T) {
	c := NewDefault()
	cases := []struct {
		message string
		want    string
	}{
		{"tenho até 350 mil para investir", "350 mil"},
		{"posso pagar até 1 milhão", "1 milhão"},
		{"orçamento de 800k", "800k"},
		{"algo em torno de 2 milhões", "2 milhões"},
		{"uns 3mi no máximo", "3mi"},
		{"tenho 1,5mi aprovado", "1,5mi"},
		{"até 2.5 milhões", "2.5 milhões"},
		{"entre 400 mil e 500 mil", "400 mil"},
		{"Tenho 250 MIL", "250 MIL"},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			s := c.Classify(tc.message)
			if s.ExtractedBudget == nil {
				t.Fatalf("expected budget %q, got none", tc.want)
			}
			if *s.ExtractedBudget != tc.want {
				t.Fatalf("ExtractedBudget = %q, want %q", *s.ExtractedBudget, tc.want)
			}
		})
	}
}

func TestClassifyBudgetRejectsOtherNumbers(t *testing.T) {
	c := NewDefault()
	for _, message := range []string{
		"moro a 5 km daqui",
		"quero 3 quartos",
		"são 1500 metros",
		"a casa fica a 50km",
		"milhares de opções",
	} {
		if s := c.Classify(message); s.ExtractedBudget != nil {
			t.Fatalf("expected no budget for %q, got %q", message, *s.ExtractedBudget)
		}
	}
}

func TestClassifyNoSignal(t *testing.T) {
	c := NewDefault()
	for _, message := range []string{"", "   ", "Bom dia!", "Qual o endereço do imóvel?", "\x00\xff"} {
		s := c.Classify(message)
		if s.TransferRequested || s.SuggestedTemperature != nil || s.SuggestedScore != nil || s.ExtractedBudget != nil || s.AISuggestsTransfer {
			t.Fatalf("expected an empty signal for %q, got %+v", message, s)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewDefault()
	message := "Quero falar com um corretor, tenho 500 mil e é urgente"
	first := c.Classify(message)
	for i := 0; i < 10; i++ {
		again := c.Classify(message)
		if again.TransferRequested != first.TransferRequested ||
			*again.SuggestedScore != *first.SuggestedScore ||
			*again.SuggestedTemperature != *first.SuggestedTemperature ||
			*again.ExtractedBudget != *first.ExtractedBudget {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func TestInspectReply(t *testing.T) {
	c := NewDefault()
	cases := []struct {
		reply string
		want  bool
	}{
		{"Vou transferir você para um de nossos corretores agora mesmo.", true},
		{"Um corretor especializado vai te ajudar.", true},
		{"Qual região você prefere?", false},
		{"", false},
	}
	for _, tc := range cases {
		s := c.InspectReply(tc.reply)
		if s.AISuggestsTransfer != tc.want {
			t.Fatalf("AISuggestsTransfer(%q) = %v, want %v", tc.reply, s.AISuggestsTransfer, tc.want)
		}
		if s.TransferRequested || s.SuggestedScore != nil || s.ExtractedBudget != nil {
			t.Fatalf("reply inspection must only set AISuggestsTransfer, got %+v", s)
		}
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := []byte(`
transfer: [" Gerente "]
reply_transfer: [encaminhar]
tiers:
  - name: visita
    temperature: hot
    score: 90
    cues: [visitar]
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	c := New(rules)

	if !c.Classify("quero o gerente").TransferRequested {
		t.Fatal("expected custom transfer cue to match")
	}
	if c.Classify("quero um corretor").TransferRequested {
		t.Fatal("default cues must not apply when rules are replaced")
	}
	s := c.Classify("posso visitar amanhã?")
	if s.SuggestedScore == nil || *s.SuggestedScore != 90 {
		t.Fatalf("expected custom tier score 90, got %+v", s)
	}
	if !c.InspectReply("vou encaminhar seu contato").AISuggestsTransfer {
		t.Fatal("expected custom reply cue to match")
	}
}

func TestLoadRulesEmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules.Tiers) != 3 || rules.Tiers[0].Name != "urgency" {
		t.Fatalf("unexpected default tiers: %+v", rules.Tiers)
	}
}

func TestParseRulesValidation(t *testing.T) {
	cases := map[string]string{
		"no transfer cues": `tiers: []`,
		"bad temperature":  "transfer: [humano]\ntiers:\n  - {name: x, temperature: boiling, score: 10, cues: [a]}",
		"score too high":   "transfer: [humano]\ntiers:\n  - {name: x, temperature: hot, score: 101, cues: [a]}",
		"empty tier":       "transfer: [humano]\ntiers:\n  - {name: x, temperature: hot, score: 10, cues: [\" \"]}",
		"malformed yaml":   "transfer: [humano",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRules([]byte(raw)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
