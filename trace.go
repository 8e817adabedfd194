package sqlite

import (
	"time"

	"github.com/rs/zerolog"
)

type config struct {
	logger      zerolog.Logger
	busyTimeout time.Duration
}

func defaultConfig() *config {
	return &config{
		logger: zerolog.Nop(),
	}
}

// Option configures a connection at open time.
type Option func(*config)

// WithLogger attaches a structured logger to the connection. Lifecycle and
// execution events are logged at debug level, tagged with a unique
// connection ID. By default nothing is logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithBusyTimeout makes the engine wait up to the given duration for a
// contended lock before a step reports busy. The default of zero keeps all
// retry policy with the caller.
func WithBusyTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.busyTimeout = d
	}
}
