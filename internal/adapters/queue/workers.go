package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/application/jobs"
	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/infrastructure/config"
)

// Workers drains the chat and push queues and runs the scheduled jobs.
// Chat transitions the Alert status; push never does.
type Workers struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	chatPacer *rate.Limiter
	pushPacer *rate.Limiter

	alerts   alert.Repository
	users    user.Repository
	chat     alert.ChatSender
	push     alert.PushSender
	mediator common.Mediator
	clock    shared.Clock
	log      zerolog.Logger
}

// NewWorkers builds the worker pool over the three queues.
func NewWorkers(
	cfg *config.QueueConfig,
	alerts alert.Repository,
	users user.Repository,
	chat alert.ChatSender,
	push alert.PushSender,
	mediator common.Mediator,
	clock shared.Clock,
	log zerolog.Logger,
) (*Workers, error) {
	opt, err := asynq.ParseRedisURI(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid queue url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueChat: 3,
			QueuePush: 3,
			QueueJobs: 1,
		},
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			return cfg.BackoffBase * time.Duration(1<<n)
		},
		Logger: nil,
	})

	w := &Workers{
		server:    server,
		mux:       asynq.NewServeMux(),
		chatPacer: rate.NewLimiter(rate.Limit(cfg.ChatRate), int(cfg.ChatRate)),
		pushPacer: rate.NewLimiter(rate.Limit(cfg.PushRate), int(cfg.PushRate)),
		alerts:    alerts,
		users:     users,
		chat:      chat,
		push:      push,
		mediator:  mediator,
		clock:     clock,
		log:       log,
	}

	w.mux.HandleFunc(TypeChatDispatch, w.handleChat)
	w.mux.HandleFunc(TypePushDispatch, w.handlePush)
	w.mux.HandleFunc(TypeWeeklyDigest, w.jobRunner(jobs.RunWeeklyDigestCommand{}))
	w.mux.HandleFunc(TypeReminderPass, w.jobRunner(jobs.RunReminderCommand{}))
	w.mux.HandleFunc(TypeSnapshot, w.jobRunner(jobs.RunSnapshotCommand{}))
	w.mux.HandleFunc(TypeCleanup, w.jobRunner(jobs.RunCleanupCommand{}))

	return w, nil
}

// Start runs the worker pool until Shutdown.
func (w *Workers) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown stops the pool, waiting for in-flight jobs.
func (w *Workers) Shutdown() {
	w.server.Shutdown()
}

// handleChat delivers one alert to its chat recipient. Outcomes follow the
// alert lifecycle: sent on success; failed without retry when the
// recipient blocked the bot; retry with backoff otherwise.
func (w *Workers) handleChat(ctx context.Context, t *asynq.Task) error {
	var p ChatDispatchPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed chat job: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.chatPacer.Wait(ctx); err != nil {
		return err
	}

	result, err := w.chat.Send(ctx, p.ChatID, p.Payload)
	if err != nil {
		if shared.KindOf(err) == shared.ErrRateLimit {
			// Leave status queued; the retry policy backs off.
			return err
		}
		if markErr := w.alerts.MarkStatus(ctx, p.AlertID, alert.StatusFailed, nil); markErr != nil {
			w.log.Error().Err(markErr).Int64("alert", p.AlertID).Msg("failed to mark alert failed")
		}
		return err
	}

	if result == alert.ChatBlocked {
		w.log.Info().Int64("chat", p.ChatID).Msg("recipient blocked the bot, detaching handle")
		if err := w.detachBlockedRecipient(ctx, p.AlertID); err != nil {
			w.log.Error().Err(err).Int64("alert", p.AlertID).Msg("failed to detach blocked recipient")
		}
		if err := w.alerts.MarkStatus(ctx, p.AlertID, alert.StatusFailed, nil); err != nil {
			return err
		}
		return nil // a blocked recipient is never retried
	}

	now := w.clock.Now()
	if err := w.alerts.MarkStatus(ctx, p.AlertID, alert.StatusSent, &now); err != nil {
		return fmt.Errorf("failed to mark alert sent: %w", err)
	}
	return nil
}

func (w *Workers) detachBlockedRecipient(ctx context.Context, alertID int64) error {
	a, err := w.alerts.FindByID(ctx, alertID)
	if err != nil {
		return err
	}
	return w.users.ClearChatHandle(ctx, a.UserID)
}

// handlePush fans out to the user's subscriptions. Alert status is owned
// by the chat path; push only logs its aggregate result.
func (w *Workers) handlePush(ctx context.Context, t *asynq.Task) error {
	var p PushDispatchPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed push job: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.pushPacer.Wait(ctx); err != nil {
		return err
	}

	result, err := w.push.Send(ctx, p.UserID, p.Payload)
	if err != nil {
		if shared.IsRetryable(err) {
			return err
		}
		w.log.Warn().Err(err).Int64("alert", p.AlertID).Msg("push delivery failed permanently")
		return fmt.Errorf("push failed: %v: %w", err, asynq.SkipRetry)
	}
	w.log.Debug().
		Int64("alert", p.AlertID).
		Str("result", string(result)).
		Msg("push fan-out complete")
	return nil
}

// jobRunner adapts a scheduled-job command to an asynq handler through the
// mediator.
func (w *Workers) jobRunner(cmd common.Request) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if _, err := w.mediator.Send(ctx, cmd); err != nil {
			return fmt.Errorf("scheduled job %s failed: %w", t.Type(), err)
		}
		return nil
	}
}
