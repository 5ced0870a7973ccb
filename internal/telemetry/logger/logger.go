package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the structured logger passed through the gateway.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config selects what New builds.
type Config struct {
	Level  string    // debug, info, warn or error
	Format string    // json, text or console
	Output io.Writer // os.Stderr when nil
}

// DefaultConfig is info-level JSON on stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

// level is shared by every logger New returns, so SetLevel reaches all of them.
var level = new(slog.LevelVar)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// slogLogger adapts *slog.Logger; only With needs rewrapping.
type slogLogger struct {
	*slog.Logger
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

// New builds a logger that redacts app tokens and credential-like
// attributes. An unknown format is an error and leaves the shared level
// alone; an unknown level means info.
func New(cfg Config) (Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: redact}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		h = slog.NewJSONHandler(out, opts)
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	level.Set(parseLevel(cfg.Level))
	return slogLogger{slog.New(h)}, nil
}

// SetLevel changes the level of every logger built by New. The server
// calls it when log.level changes in the config file.
func SetLevel(s string) {
	level.Set(parseLevel(s))
}

// GetLevel returns the shared level name.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

func parseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToLower(s)]; ok {
		return l
	}
	return slog.LevelInfo
}

// Discard returns a logger that writes nothing.
func Discard() Logger {
	return slogLogger{slog.New(slog.DiscardHandler)}
}

var std atomic.Pointer[Logger]

func init() {
	l, _ := New(DefaultConfig())
	SetDefault(l)
}

// SetDefault replaces the process logger returned by Default and L.
func SetDefault(l Logger) {
	std.Store(&l)
}

// Default returns the process logger.
func Default() Logger {
	return *std.Load()
}
