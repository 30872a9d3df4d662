package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRAAdvanceStart = "ra.advance.start"

const TaskRAAdvanceEnd = "ra.advance.end"

type RAAdvancePayload struct {
	ReverseAuctionID int64 `json:"reverseAuctionId"`
	TenderID         int64 `json:"tenderId"`
}

func NewRAAdvanceStartTask(payload RAAdvancePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRAAdvanceStart, data), nil
}

func NewRAAdvanceEndTask(payload RAAdvancePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRAAdvanceEnd, data), nil
}

func ParseRAAdvancePayload(task *asynq.Task) (RAAdvancePayload, error) {
	var payload RAAdvancePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RAAdvancePayload{}, err
	}
	return payload, nil
}
