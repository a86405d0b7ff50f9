package management

import (
	"imob_crm_backend/internal/leads/conversation"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/transport"
)

func ToLeadResponse(lead domain.Lead) transport.LeadResponse {
	aiActive, requestedHuman := lead.Mode.Flags()
	return transport.LeadResponse{
		ID:                lead.ID,
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		Source:            lead.Source,
		Status:            lead.Status,
		Temperature:       lead.Temperature,
		Score:             lead.Score,
		Budget:            lead.Budget,
		Interest:          lead.Interest,
		Notes:             lead.Notes,
		Mode:              lead.Mode,
		AIActive:          aiActive,
		RequestedHuman:    requestedHuman,
		AIQualified:       lead.AIQualified,
		HandoffNotifiedAt: lead.HandoffNotifiedAt,
		CreatedAt:         lead.CreatedAt,
		UpdatedAt:         lead.UpdatedAt,
	}
}

func ToTurnResponse(turn domain.Turn) transport.TurnResponse {
	return transport.TurnResponse{
		ID:                turn.ID,
		LeadID:            turn.LeadID,
		Content:           turn.Content,
		Sender:            turn.Sender,
		IsAI:              turn.IsAI,
		IsTransferRequest: turn.IsTransferRequest,
		CreatedAt:         turn.CreatedAt,
	}
}

func ToExchangeResponse(exchange conversation.Exchange) transport.ExchangeResponse {
	resp := transport.ExchangeResponse{
		LeadTurn:         ToTurnResponse(exchange.LeadTurn),
		Lead:             ToLeadResponse(exchange.Lead),
		Signal:           exchange.Signal,
		Generated:        exchange.Generated,
		UsedFallback:     exchange.UsedFallback,
		HandoffTriggered: exchange.HandoffTriggered,
	}
	if exchange.Reply != nil {
		reply := ToTurnResponse(*exchange.Reply)
		resp.Reply = &reply
	}
	return resp
}
