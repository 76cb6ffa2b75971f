package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. JSON output by default; pretty console
// output is for local development only.
func New(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(lvl).With().
		Timestamp().
		Str("service", "aegis-auth").
		Logger()
}

// Audit starts an info-level event tagged as an audit record. Every auth flow
// transition that changes session state goes through here.
func Audit(log zerolog.Logger, event string) *zerolog.Event {
	return log.Info().Str("audit", event)
}
