package alert

import (
	"context"
	"time"
)

// Repository persists the alert history. Insert relies on the unique
// idempotency key for dedup instead of check-then-insert.
type Repository interface {
	// Insert writes the alert and returns inserted=false on an
	// idempotency conflict, which callers swallow.
	Insert(ctx context.Context, a *Alert) (inserted bool, err error)
	Update(ctx context.Context, a *Alert) error
	FindByID(ctx context.Context, id int64) (*Alert, error)
	// AlertedWithin reports whether a fingerprint was alerted to the user
	// in the last N days. Used for reminder suppression.
	AlertedWithin(ctx context.Context, userID int64, fingerprint string, days int) (bool, error)
	BestByUserSince(ctx context.Context, userID int64, since time.Time, limit int) ([]Alert, error)
	MarkStatus(ctx context.Context, id int64, status Status, sentAt *time.Time) error
}

// ChatResult is the chat channel delivery outcome.
type ChatResult string

const (
	ChatSent    ChatResult = "sent"
	ChatBlocked ChatResult = "blocked" // recipient blocked the bot: non-retryable
)

// ChatSender delivers a payload to a chat recipient. A blocked recipient is
// reported as (ChatBlocked, nil) so the worker can detach the handle without
// tripping the retry policy.
type ChatSender interface {
	Send(ctx context.Context, chatID int64, p Payload) (ChatResult, error)
}

// Digest summarizes a user's week for the scheduled digest message.
type Digest struct {
	WatchCount int
	Best       []Alert
}

// DigestSender delivers the weekly digest to a chat recipient.
type DigestSender interface {
	SendDigest(ctx context.Context, chatID int64, d Digest) error
}

// PushResult is the aggregate outcome of a push fan-out.
type PushResult string

const (
	PushSent            PushResult = "sent"
	PushPartial         PushResult = "partial"
	PushFailed          PushResult = "failed"
	PushNoSubscriptions PushResult = "no_subscriptions"
)

// PushSender fans one payload out to all active subscriptions of a user.
type PushSender interface {
	Send(ctx context.Context, userID int64, p Payload) (PushResult, error)
}

// Enqueuer places dispatch jobs on the durable queues. Enqueue is
// idempotent per job id; delay defers processing (quiet hours).
type Enqueuer interface {
	EnqueueChat(ctx context.Context, alertID int64, chatID int64, p Payload, jobID string, delay time.Duration) error
	EnqueuePush(ctx context.Context, alertID int64, userID int64, p Payload, jobID string, delay time.Duration) error
}
