package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"intake/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger scopes slog output to a component, and optionally a file and
// function within it.
type Logger struct {
	name     string
	file     string
	function string
	attrs    []any
}

func New(name string) Logger {
	return Logger{name: name}
}

func (l Logger) File(file string) Logger {
	l.file = file
	return l
}

func (l Logger) Function(function string) Logger {
	l.function = function
	return l
}

func (l Logger) With(args ...any) Logger {
	l.attrs = append(append([]any{}, l.attrs...), args...)
	return l
}

func (l Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Er logs err at error level without returning it.
func (l Logger) Er(msg string, err error, args ...any) {
	l.log(slog.LevelError, msg, append(args, "error", err)...)
}

// Err logs err and returns it wrapped with msg.
func (l Logger) Err(msg string, err error, args ...any) error {
	l.Er(msg, err, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// Error logs msg and returns it as a new error.
func (l Logger) Error(msg string, args ...any) error {
	l.log(slog.LevelError, msg, args...)
	return errors.New(msg)
}

func (l Logger) ErrMsg(msg string) error {
	return l.Error(msg)
}

func (l Logger) log(level slog.Level, msg string, args ...any) {
	base := slog.Default()
	if !base.Enabled(context.Background(), level) {
		return
	}

	attrs := make([]any, 0, len(l.attrs)+len(args)+6)
	attrs = append(attrs, "component", l.name)
	if l.file != "" {
		attrs = append(attrs, "file", l.file)
	}
	if l.function != "" {
		attrs = append(attrs, "function", l.function)
	}
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)

	base.Log(context.Background(), level, msg, attrs...)
}

// Setup installs the process-wide slog handler. Development uses text output,
// everything else JSON; LOG_FILE adds a rotated file sink.
func Setup(cfg config.Config) io.Closer {
	var writers []io.Writer
	writers = append(writers, os.Stdout)

	var rotator *lumberjack.Logger
	if cfg.LogFile != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, rotator)
	}

	slog.SetDefault(slog.New(NewHandler(io.MultiWriter(writers...), cfg)))

	if rotator == nil {
		return nopCloser{}
	}
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func NewHandler(w io.Writer, cfg config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "json") || !cfg.IsDevelopment() {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
