package helpers

import (
	"context"
	"sync"
	"time"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
)

// EnqueuedJob records one job handed to the mock enqueuer
type EnqueuedJob struct {
	Queue   string // "chat" or "push"
	AlertID int64
	ChatID  int64
	UserID  int64
	Payload alert.Payload
	JobID   string
	Delay   time.Duration
}

// MockEnqueuer is a test double for the queue enqueuer. It records jobs
// and mimics the idempotent behavior of the real one: a duplicate job id
// is swallowed without recording.
type MockEnqueuer struct {
	mu   sync.Mutex
	jobs []EnqueuedJob
	seen map[string]bool

	chatErr error
	pushErr error
}

// NewMockEnqueuer creates a new mock enqueuer
func NewMockEnqueuer() *MockEnqueuer {
	return &MockEnqueuer{seen: make(map[string]bool)}
}

// EnqueueChat records a chat dispatch job
func (m *MockEnqueuer) EnqueueChat(ctx context.Context, alertID, chatID int64, p alert.Payload, jobID string, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chatErr != nil {
		return m.chatErr
	}
	if m.seen[jobID] {
		return nil
	}
	m.seen[jobID] = true
	m.jobs = append(m.jobs, EnqueuedJob{Queue: "chat", AlertID: alertID, ChatID: chatID, Payload: p, JobID: jobID, Delay: delay})
	return nil
}

// EnqueuePush records a push dispatch job
func (m *MockEnqueuer) EnqueuePush(ctx context.Context, alertID, userID int64, p alert.Payload, jobID string, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	if m.seen[jobID] {
		return nil
	}
	m.seen[jobID] = true
	m.jobs = append(m.jobs, EnqueuedJob{Queue: "push", AlertID: alertID, UserID: userID, Payload: p, JobID: jobID, Delay: delay})
	return nil
}

// SetChatError makes EnqueueChat fail with the given error
func (m *MockEnqueuer) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatErr = err
}

// SetPushError makes EnqueuePush fail with the given error
func (m *MockEnqueuer) SetPushError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushErr = err
}

// Jobs returns all recorded jobs
func (m *MockEnqueuer) Jobs() []EnqueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EnqueuedJob(nil), m.jobs...)
}

// JobsOn returns the recorded jobs of one queue
func (m *MockEnqueuer) JobsOn(queue string) []EnqueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EnqueuedJob
	for _, j := range m.jobs {
		if j.Queue == queue {
			out = append(out, j)
		}
	}
	return out
}
