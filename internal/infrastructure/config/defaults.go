package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "brickwatch"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "brickwatch"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Queue defaults
	if cfg.Queue.URL == "" {
		cfg.Queue.URL = "redis://localhost:6379/0"
	}
	if cfg.Queue.Concurrency == 0 {
		cfg.Queue.Concurrency = 10
	}
	if cfg.Queue.ChatRate == 0 {
		cfg.Queue.ChatRate = 30
	}
	if cfg.Queue.PushRate == 0 {
		cfg.Queue.PushRate = 50
	}
	if cfg.Queue.MaxRetry == 0 {
		cfg.Queue.MaxRetry = 3
	}
	if cfg.Queue.BackoffBase == 0 {
		cfg.Queue.BackoffBase = 2 * time.Second
	}
	if cfg.Queue.Retention == 0 {
		cfg.Queue.Retention = 24 * time.Hour
	}

	// Marketplace defaults. Base URLs left empty fall back to the public
	// endpoints inside each adapter; only set them for sandboxing.
	if cfg.Ebay.DefaultMarketplace == "" {
		cfg.Ebay.DefaultMarketplace = "EBAY_DE"
	}

	// Scan defaults
	if cfg.Scan.Interval == 0 {
		cfg.Scan.Interval = 15 * time.Minute
	}
	if cfg.Scan.Budget == 0 {
		cfg.Scan.Budget = 10 * time.Minute
	}
	if cfg.Scan.GroupConcurrency == 0 {
		cfg.Scan.GroupConcurrency = 4
	}
	if cfg.Scan.ListingLimit == 0 {
		cfg.Scan.ListingLimit = 50
	}

	// Dispatch defaults
	if cfg.Dispatch.MaxPerDay == 0 {
		cfg.Dispatch.MaxPerDay = 20
	}
	if cfg.Dispatch.MaxPerHour == 0 {
		cfg.Dispatch.MaxPerHour = 6
	}
	if cfg.Dispatch.MaxPerTenMin == 0 {
		cfg.Dispatch.MaxPerTenMin = 3
	}
	if cfg.Dispatch.MaxPerItemDay == 0 {
		cfg.Dispatch.MaxPerItemDay = 5
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
