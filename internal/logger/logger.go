package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pm-functions/internal/config"
)

type LoggerService interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, err error, args ...any)
	With(args ...any) LoggerService
	Close() error
}

type service struct {
	logger *slog.Logger
	file   *os.File
}

// New writes to cfg.Log.File when set, otherwise to stderr. Debug lowers the
// level and tees file output to stderr.
func New(cfg config.Config) (LoggerService, error) {
	path := strings.TrimSpace(cfg.Log.File)
	if path == "" {
		return newService(os.Stderr, cfg.Log.Format, cfg.Debug, nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	var out io.Writer = f
	if cfg.Debug {
		out = io.MultiWriter(os.Stderr, f)
	}

	return newService(out, cfg.Log.Format, cfg.Debug, f), nil
}

func NewStderr() LoggerService {
	return newService(os.Stderr, config.LogFormatText, false, nil)
}

// NewWriter logs text records to w.
func NewWriter(w io.Writer, debug bool) LoggerService {
	return newService(w, config.LogFormatText, debug, nil)
}

func Nop() LoggerService {
	return newService(io.Discard, config.LogFormatText, false, nil)
}

func newService(w io.Writer, format string, debug bool, f *os.File) *service {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(format, config.LogFormatJSON) {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &service{logger: slog.New(h), file: f}
}

func (s *service) Debug(msg string, args ...any) {
	s.write(slog.LevelDebug, msg, args)
}

func (s *service) Info(msg string, args ...any) {
	s.write(slog.LevelInfo, msg, args)
}

func (s *service) Warn(msg string, args ...any) {
	s.write(slog.LevelWarn, msg, args)
}

func (s *service) Error(msg string, err error, args ...any) {
	msg = strings.TrimSpace(msg)
	if err != nil {
		if msg == "" {
			msg = err.Error()
		} else {
			args = append([]any{"error", err.Error()}, args...)
		}
	}
	s.write(slog.LevelError, msg, args)
}

// With returns a logger that adds args to every record. The returned logger
// shares the underlying file; only the original should be closed.
func (s *service) With(args ...any) LoggerService {
	return &service{logger: s.logger.With(args...)}
}

func (s *service) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func (s *service) write(level slog.Level, msg string, args []any) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	s.logger.Log(context.Background(), level, msg, args...)
}
