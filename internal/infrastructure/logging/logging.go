package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/infrastructure/config"
)

// NewLogger builds the process logger from configuration. Timestamps are
// UTC to match everything persisted.
func NewLogger(cfg *config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out}
	}

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
