package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/infrastructure/config"
)

// AsynqEnqueuer implements alert.Enqueuer on the Redis-backed queues.
// Enqueue is idempotent per job id: a second enqueue with the same id
// collapses into the existing job.
type AsynqEnqueuer struct {
	client    *asynq.Client
	maxRetry  int
	retention time.Duration
}

// NewEnqueuer creates the enqueuer from the queue configuration.
func NewEnqueuer(cfg *config.QueueConfig) (*AsynqEnqueuer, error) {
	opt, err := asynq.ParseRedisURI(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid queue url: %w", err)
	}
	return &AsynqEnqueuer{
		client:    asynq.NewClient(opt),
		maxRetry:  cfg.MaxRetry,
		retention: cfg.Retention,
	}, nil
}

// Close releases the Redis connection.
func (e *AsynqEnqueuer) Close() error {
	return e.client.Close()
}

func (e *AsynqEnqueuer) EnqueueChat(ctx context.Context, alertID, chatID int64, p alert.Payload, jobID string, delay time.Duration) error {
	task, err := newChatTask(ChatDispatchPayload{AlertID: alertID, ChatID: chatID, Payload: p})
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, QueueChat, jobID, delay)
}

func (e *AsynqEnqueuer) EnqueuePush(ctx context.Context, alertID, userID int64, p alert.Payload, jobID string, delay time.Duration) error {
	task, err := newPushTask(PushDispatchPayload{AlertID: alertID, UserID: userID, Payload: p})
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, QueuePush, jobID, delay)
}

func (e *AsynqEnqueuer) enqueue(ctx context.Context, task *asynq.Task, queue, jobID string, delay time.Duration) error {
	opts := []asynq.Option{
		asynq.Queue(queue),
		asynq.TaskID(jobID),
		asynq.MaxRetry(e.maxRetry),
		asynq.Retention(e.retention),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	_, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		// Same job id already queued: idempotent enqueue, not a failure.
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to enqueue %s job: %w", queue, err)
	}
	return nil
}
