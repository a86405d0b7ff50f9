package agent

import (
	"context"
	"fmt"
	"strings"

	"imob_crm_backend/platform/ai/gateway"
	"imob_crm_backend/platform/config"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// NewModel selects the LLM behind the responder. It returns nil for
// AI_PROVIDER=none.
func NewModel(ctx context.Context, cfg config.AIConfig) (model.LLM, error) {
	switch cfg.GetAIProvider() {
	case config.AIProviderNone:
		return nil, nil
	case config.AIProviderGemini:
		name := strings.TrimPrefix(cfg.GetAIModel(), "google/")
		llm, err := gemini.NewModel(ctx, name, &genai.ClientConfig{
			APIKey:  cfg.GetAIAPIKey(),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return llm, nil
	case config.AIProviderGateway:
		return gateway.NewModel(gateway.Config{
			APIKey:  cfg.GetAIAPIKey(),
			BaseURL: cfg.GetAIBaseURL(),
			Model:   cfg.GetAIModel(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.GetAIProvider())
	}
}
