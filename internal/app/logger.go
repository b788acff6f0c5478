package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production and explicit "json" config
// get machine-readable output; development keeps the text handler with source
// locations for quicker digging.
func NewLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
