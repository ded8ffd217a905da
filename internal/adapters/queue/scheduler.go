package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/brickwatch/brickwatch/internal/infrastructure/config"
)

// Cron entries, all UTC. Snapshot runs before cleanup so the day's
// aggregate sees expiring listings one last time.
const (
	cronWeeklyDigest = "0 9 * * 1"
	cronReminderPass = "0 8 * * *"
	cronSnapshot     = "5 0 * * *"
	cronCleanup      = "10 0 * * *"
)

// Scheduler registers the periodic jobs on the broker. The actual work
// happens in the worker pool's jobs queue.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

// NewScheduler creates the periodic scheduler.
func NewScheduler(cfg *config.QueueConfig) (*Scheduler, error) {
	opt, err := asynq.ParseRedisURI(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid queue url: %w", err)
	}
	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	entries := []struct {
		spec     string
		taskType string
	}{
		{cronWeeklyDigest, TypeWeeklyDigest},
		{cronReminderPass, TypeReminderPass},
		{cronSnapshot, TypeSnapshot},
		{cronCleanup, TypeCleanup},
	}
	for _, e := range entries {
		task := asynq.NewTask(e.taskType, nil)
		if _, err := s.Register(e.spec, task, asynq.Queue(QueueJobs)); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", e.taskType, err)
		}
	}
	return &Scheduler{scheduler: s}, nil
}

// Start runs the scheduler until Shutdown.
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

// Shutdown stops the scheduler.
func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
