package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
)

// Queue names. Chat owns the alert status; push is additive.
const (
	QueueChat = "chat"
	QueuePush = "push"
	QueueJobs = "jobs"
)

// Task type names.
const (
	TypeChatDispatch = "dispatch:chat"
	TypePushDispatch = "dispatch:push"

	TypeWeeklyDigest = "jobs:digest"
	TypeReminderPass = "jobs:reminder"
	TypeSnapshot     = "jobs:snapshot"
	TypeCleanup      = "jobs:cleanup"
)

// ChatDispatchPayload is the chat queue job body.
type ChatDispatchPayload struct {
	AlertID int64         `json:"alert_id"`
	ChatID  int64         `json:"chat_id"`
	Payload alert.Payload `json:"payload"`
}

// PushDispatchPayload is the push queue job body.
type PushDispatchPayload struct {
	AlertID int64         `json:"alert_id"`
	UserID  int64         `json:"user_id"`
	Payload alert.Payload `json:"payload"`
}

func newChatTask(p ChatDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat job: %w", err)
	}
	return asynq.NewTask(TypeChatDispatch, body), nil
}

func newPushTask(p PushDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push job: %w", err)
	}
	return asynq.NewTask(TypePushDispatch, body), nil
}
