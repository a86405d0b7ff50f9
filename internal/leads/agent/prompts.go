package agent

import (
	"fmt"
	"strings"

	"imob_crm_backend/internal/leads/domain"
)

const (
	defaultLeadName = "Cliente"
	defaultInterest = "Não especificado"
)

// getSystemPrompt returns the instruction for the lead qualification assistant.
func getSystemPrompt(leadName string, interest *string) string {
	name := strings.TrimSpace(leadName)
	if name == "" {
		name = defaultLeadName
	}
	declared := defaultInterest
	if interest != nil && strings.TrimSpace(*interest) != "" {
		declared = strings.TrimSpace(*interest)
	}

	return fmt.Sprintf(`Você é um assistente virtual de uma imobiliária brasileira. Seu objetivo é:
1. Fazer a pré-qualificação dos leads
2. Coletar informações sobre o tipo de imóvel desejado (apartamento, casa, comercial)
3. Entender a faixa de preço do cliente
4. Descobrir a região de interesse
5. Verificar se é para compra ou aluguel
6. Agendar visitas quando apropriado

Regras importantes:
- Seja cordial e profissional
- Use linguagem informal mas respeitosa (você, não tu)
- Faça perguntas abertas para entender melhor as necessidades
- Se o cliente pedir para falar com um humano, diga: "Entendo! Vou transferir você para um de nossos corretores agora mesmo. Aguarde um momento."
- Não invente informações sobre imóveis específicos
- Foque em qualificar o lead antes de oferecer imóveis

Nome do lead: %s
Interesse declarado: %s`, name, declared)
}

// buildUserMessage renders prior turns as a transcript followed by the message to answer.
func buildUserMessage(message string, history []domain.Turn) string {
	if len(history) == 0 {
		return message
	}

	var sb strings.Builder
	sb.WriteString("Histórico da conversa:\n")
	for _, turn := range history {
		sb.WriteString(speakerLabel(turn.Sender))
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(turn.Content))
		sb.WriteString("\n")
	}
	sb.WriteString("\nNova mensagem do cliente:\n")
	sb.WriteString(message)
	return sb.String()
}

func speakerLabel(sender domain.Sender) string {
	switch sender {
	case domain.SenderAI:
		return "Assistente"
	case domain.SenderAgent:
		return "Corretor"
	default:
		return "Cliente"
	}
}
