// Package logger builds the reconciler's process-wide slog logger.
// Output is JSON on stdout so reconciliation runs can be traced by
// correlation id across the API, the corrector and the audit producer.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/careledger/careledger/internal/config"
)

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger builds the logger from LOG_LEVEL. Unknown level names fall
// back to info. Source locations are emitted only at debug: correction
// paths log per match and the extra frames are noise at normal volume.
func NewLogger(cfg *config.Config) *slog.Logger {
	level, ok := levelNames[strings.ToLower(cfg.Logging.Level)]
	if !ok {
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})

	log := slog.New(handler)
	log.Info("logger initialized", "level", level)
	return log
}
