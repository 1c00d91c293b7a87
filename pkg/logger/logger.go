package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config controls output format and verbosity
type Config struct {
	// Level is the minimum level to log: debug, info, warn or error
	Level string
	// JSON switches from text to JSON output
	JSON bool
	// Output defaults to os.Stderr
	Output io.Writer
	// AddSource includes file and line per record
	AddSource bool
}

// DefaultConfig is JSON at info level, suited for container logs
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		JSON:   true,
		Output: os.Stderr,
	}
}

// Logger wraps slog with the helpers the chat flow needs: request,
// session and specialist scoping.
type Logger struct {
	*slog.Logger
	config Config
}

var global *Logger

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from config. The first logger created becomes the
// global fallback.
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	l := &Logger{Logger: slog.New(handler), config: config}
	if global == nil {
		global = l
	}
	return l
}

// SetGlobal replaces the global logger
func SetGlobal(logger *Logger) {
	global = logger
}

// GetGlobal returns the global logger, creating a default one if needed
func GetGlobal() *Logger {
	if global == nil {
		global = New(DefaultConfig())
	}
	return global
}

// LogError logs err under msg with extra key-value pairs
func (l *Logger) LogError(err error, msg string, args ...any) {
	l.Error(msg, append([]any{"error", err.Error()}, args...)...)
}

// WithRequestID scopes the logger to one HTTP request
func (l *Logger) WithRequestID(requestID string) *Logger {
	if requestID == "" {
		return l
	}
	return &Logger{Logger: l.With("request_id", requestID)}
}

// WithSessionID scopes the logger to one chat session
func (l *Logger) WithSessionID(sessionID string) *Logger {
	if sessionID == "" {
		return l
	}
	return &Logger{Logger: l.With("session_id", sessionID)}
}

// WithSpecialist scopes the logger to one specialist
func (l *Logger) WithSpecialist(name string) *Logger {
	if name == "" {
		return l
	}
	return &Logger{Logger: l.With("specialist", name)}
}

// LogRequest records one completed HTTP request
func (l *Logger) LogRequest(method, path string, status int, latency time.Duration) {
	l.Info("request completed",
		"method", method,
		"path", path,
		"status", status,
		"latency_ms", latency.Milliseconds(),
	)
}
