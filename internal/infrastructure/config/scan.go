package config

import "time"

// ScanConfig shapes the scan cycle.
type ScanConfig struct {
	// Interval between scan cycle starts
	Interval time.Duration `mapstructure:"interval"`

	// Wall-clock budget per cycle; groups left when it expires are
	// skipped and logged
	Budget time.Duration `mapstructure:"budget"`

	// Max scan groups processed concurrently
	GroupConcurrency int `mapstructure:"group_concurrency" validate:"min=1"`

	// Max listings requested per marketplace query
	ListingLimit int `mapstructure:"listing_limit" validate:"min=1"`
}

// DispatchConfig holds the per-user alert caps applied before enqueue.
type DispatchConfig struct {
	// Max alerts per user per UTC day
	MaxPerDay int `mapstructure:"max_per_day" validate:"min=1"`

	// Max alerts per user per rolling hour
	MaxPerHour int `mapstructure:"max_per_hour" validate:"min=1"`

	// Max alerts per user per rolling ten minutes
	MaxPerTenMin int `mapstructure:"max_per_ten_min" validate:"min=1"`

	// Max alerts per (user, item) per UTC day
	MaxPerItemDay int `mapstructure:"max_per_item_day" validate:"min=1"`
}

// ServerConfig is the process surface, a port held for health checks.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}
