// Package gateway adapts OpenAI-compatible chat completion endpoints to the ADK model.LLM interface.
package gateway

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	defaultModel       = "google/gemini-3-flash-preview"
	defaultMaxTokens   = 500
	defaultTemperature = 0.7
)

// Config for an OpenAI-compatible gateway.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Model calls a chat completion endpoint on behalf of an ADK agent.
type Model struct {
	config Config
	client *openai.Client
}

func NewModel(cfg Config) *Model {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Model{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (m *Model) Name() string {
	return m.config.Model
}

// GenerateContent answers with a single, complete response; streaming is not supported.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	completionReq := openai.ChatCompletionRequest{
		Model:       m.config.Model,
		Messages:    convertMessages(req),
		MaxTokens:   m.config.MaxTokens,
		Temperature: m.config.Temperature,
	}
	if req != nil && req.Config != nil {
		if req.Config.Temperature != nil {
			completionReq.Temperature = *req.Config.Temperature
		}
		if req.Config.MaxOutputTokens > 0 {
			completionReq.MaxTokens = int(req.Config.MaxOutputTokens)
		}
	}

	resp, err := m.client.CreateChatCompletion(ctx, completionReq)
	if err != nil {
		return nil, fmt.Errorf("gateway chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("gateway chat completion: empty choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	parts := make([]*genai.Part, 0, 1)
	if text != "" {
		parts = append(parts, genai.NewPartFromText(text))
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		},
		TurnComplete: true,
	}, nil
}

func convertMessages(req *model.LLMRequest) []openai.ChatCompletionMessage {
	if req == nil {
		return nil
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Contents)+1)
	if req.Config != nil {
		if system := contentText(req.Config.SystemInstruction); system != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			})
		}
	}

	for _, content := range req.Contents {
		text := contentText(content)
		if text == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    roleForContent(content.Role),
			Content: text,
		})
	}
	return messages
}

func roleForContent(role string) string {
	if role == "model" {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}

func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range content.Parts {
		if part == nil || strings.TrimSpace(part.Text) == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(part.Text)
	}
	return strings.TrimSpace(builder.String())
}
