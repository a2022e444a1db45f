// Package logging configures the application's zerolog loggers.
// Payment-related code logs through the dedicated payments channel so
// gateway traffic can be audited separately from request logs.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	root     zerolog.Logger
	payments zerolog.Logger
)

func init() {
	Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT") == "console")
}

// Setup initialises the loggers. level accepts zerolog level names and
// defaults to info; console switches to human-readable output.
func Setup(level string, console bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var w = zerolog.LevelWriter(zerolog.MultiLevelWriter(os.Stdout))
	if console {
		w = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	root = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	payments = root.With().Str("channel", "payments").Logger()
}

// Logger returns the root application logger.
func Logger() *zerolog.Logger {
	return &root
}

// Payments returns the dedicated payments channel logger.
func Payments() *zerolog.Logger {
	return &payments
}
