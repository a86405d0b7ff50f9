package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskHandoffAlert = "leads.handoff.alert"

type HandoffAlertPayload struct {
	LeadID    string `json:"leadId"`
	AccountID string `json:"accountId"`
	Reason    string `json:"reason"`
}

func NewHandoffAlertTask(payload HandoffAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHandoffAlert, data), nil
}

func ParseHandoffAlertPayload(task *asynq.Task) (HandoffAlertPayload, error) {
	var payload HandoffAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HandoffAlertPayload{}, err
	}
	return payload, nil
}
