package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/irhvac-core/internal/infrastructure/config"
)

// Logger is the process-wide structured logger. It embeds slog.Logger,
// so it satisfies the small Logger interfaces the hvac, telnet, mqtt,
// and gateway packages declare for themselves.
//
// Every record carries service and version attributes so aggregated
// logs from several bridges stay attributable.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of config.yaml:
// level filtering, json or text format, stdout or stderr.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return newLogger(cfg, version, output)
}

// newLogger is the writer-injectable core of New.
func newLogger(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "irhvacd"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

// parseLevel maps a config level string to slog. Unrecognised values
// fall back to info rather than failing startup.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger with extra default attributes.
//
// Example:
//
//	gatewayLog := logger.With("component", "gateway")
//	gatewayLog.Info("connected") // includes component=gateway
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the bootstrap logger used before config.yaml has been
// read: JSON to stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
