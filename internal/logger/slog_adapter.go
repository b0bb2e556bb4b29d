package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger implements Logger on log/slog with sanitized output
type SlogLogger struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
	writers   []io.WriteCloser // owned writers, closed on Shutdown
}

// NewSlogLogger creates a logger writing to config.Writer and, when
// enabled, a rotated log file
func NewSlogLogger(config Config) (*SlogLogger, error) {
	console := config.Writer
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{console}
	var owned []io.WriteCloser

	if config.File.Enabled {
		fileWriter, err := createFileWriter(config.File)
		if err != nil {
			return nil, fmt.Errorf("failed to create file writer: %w", err)
		}
		writers = append(writers, fileWriter)
		owned = append(owned, fileWriter)
	}

	out := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{
		Level: convertLevel(config.Level),
	}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &SlogLogger{
		logger:    slog.New(handler),
		sanitizer: NewSanitizer(),
		writers:   owned,
	}, nil
}

// createFileWriter creates a lumberjack writer for config.Path
func createFileWriter(config FileConfig) (io.WriteCloser, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxAge:     config.MaxAgeDays,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

func convertLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, l.sanitizer.Sanitize(msg), l.sanitizer.SanitizeArgs(args)...)
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *SlogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// With returns a child logger. Children share the parent's writers but do
// not own them, so closing a child never closes the log file.
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{
		logger:    l.logger.With(l.sanitizer.SanitizeArgs(args)...),
		sanitizer: l.sanitizer,
	}
}

// Sync is a no-op; lumberjack writes through
func (l *SlogLogger) Sync() error {
	return nil
}

// Shutdown closes owned writers
func (l *SlogLogger) Shutdown() error {
	var lastErr error
	for _, w := range l.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	l.writers = nil
	return lastErr
}
