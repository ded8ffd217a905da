package config

import "time"

// QueueConfig holds the Redis broker and worker pool configuration.
type QueueConfig struct {
	// Redis connection URL, e.g. redis://localhost:6379/0
	URL string `mapstructure:"url" validate:"required"`

	// Worker pool size shared by the chat and push queues
	Concurrency int `mapstructure:"concurrency" validate:"min=1"`

	// Per-queue throughput caps, jobs per second
	ChatRate float64 `mapstructure:"chat_rate" validate:"gt=0"`
	PushRate float64 `mapstructure:"push_rate" validate:"gt=0"`

	// Retry policy for dispatch jobs
	MaxRetry    int           `mapstructure:"max_retry" validate:"min=0"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	// How long finished jobs stay inspectable before Redis trims them
	Retention time.Duration `mapstructure:"retention"`
}
