package agent

import (
	"context"
	"fmt"
	"strings"

	"imob_crm_backend/internal/leads/domain"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/google/uuid"
)

const responderAppName = "lead_conversation_responder"

// Responder writes the assistant's replies to lead messages through an ADK agent.
type Responder struct {
	model          model.LLM
	sessionService session.Service
	appName        string
}

// NewResponder builds a responder on top of llm.
func NewResponder(llm model.LLM) *Responder {
	return &Responder{
		model:          llm,
		sessionService: session.InMemoryService(),
		appName:        responderAppName,
	}
}

// GenerateReply runs one agent turn. The instruction carries the lead's name
// and interest, so each call gets its own agent and session.
func (r *Responder) GenerateReply(ctx context.Context, req domain.ReplyRequest) (string, error) {
	if r.model == nil {
		return "", fmt.Errorf("responder model is not configured")
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "LeadConversationResponder",
		Model:       r.model,
		Description: "Pre-qualifies real-estate leads in Portuguese.",
		Instruction: getSystemPrompt(req.LeadName, req.DeclaredInterest),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create ADK agent: %w", err)
	}

	run, err := runner.New(runner.Config{
		AppName:        r.appName,
		Agent:          adkAgent,
		SessionService: r.sessionService,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create ADK runner: %w", err)
	}

	userID := "lead-" + req.LeadID.String()
	sessionID := uuid.New().String()

	if _, err := r.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   r.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer r.deleteSession(userID, sessionID)

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: buildUserMessage(req.Message, req.History)},
		},
	}

	var output strings.Builder
	for event, err := range run.Run(ctx, userID, sessionID, userMessage, agent.RunConfig{StreamingMode: agent.StreamingModeNone}) {
		if err != nil {
			return "", err
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				output.WriteString(part.Text)
			}
		}
	}

	return strings.TrimSpace(output.String()), nil
}

func (r *Responder) deleteSession(userID, sessionID string) {
	_ = r.sessionService.Delete(context.Background(), &session.DeleteRequest{
		AppName:   r.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
}
