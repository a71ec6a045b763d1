// Package log sets up structured logging (log/slog) the way the teacher
// does: a below-Debug Trace level, a fan-out MultiHandler, and a
// level-gated wrapper, so the control binary can log to stdout/stderr
// (Error and above to stderr) or, when a log file is given, to that file
// alone.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug for the raw packet trace and
// other very-high-volume diagnostics.
const LevelTrace slog.Level = -8

// ParseLevel parses "trace", "debug", "info", "warn", or "error"
// (case-insensitive) into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log: unknown level %q", s)
	}
}

// MultiHandler fans out every record to each handler in hs.
type MultiHandler struct {
	hs []slog.Handler
}

// NewMultiHandler builds a MultiHandler over hs.
func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{hs: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		next[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{hs: next}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		next[i] = h.WithGroup(name)
	}
	return &MultiHandler{hs: next}
}

// LevelFilter wraps h, only passing records whose level satisfies pass.
type LevelFilter struct {
	pass func(slog.Level) bool
	h    slog.Handler
}

// NewLevelFilter wraps h with a predicate over the record's level.
func NewLevelFilter(pass func(slog.Level) bool, h slog.Handler) *LevelFilter {
	return &LevelFilter{pass: pass, h: h}
}

func (f *LevelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return f.pass(level) && f.h.Enabled(ctx, level)
}

func (f *LevelFilter) Handle(ctx context.Context, r slog.Record) error {
	if !f.pass(r.Level) {
		return nil
	}
	return f.h.Handle(ctx, r)
}

func (f *LevelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelFilter{pass: f.pass, h: f.h.WithAttrs(attrs)}
}

func (f *LevelFilter) WithGroup(name string) slog.Handler {
	return &LevelFilter{pass: f.pass, h: f.h.WithGroup(name)}
}

// SetupLogger builds the program's root logger. With no logFile, records
// below Error go to stdout and Error+ go to stderr; with a logFile, every
// record at or above logLevel goes to that single file instead. Returns
// any io.Closer the caller must close on shutdown (the log file, if any).
func SetupLogger(logLevel slog.Level, logFile string) (*slog.Logger, []io.Closer, error) {
	var closers []io.Closer

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("log: open %s: %w", logFile, err)
		}
		closers = append(closers, f)
		h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel})
		return slog.New(h), closers, nil
	}

	stdout := NewLevelFilter(func(l slog.Level) bool { return l < slog.LevelError }, slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	stderr := NewLevelFilter(func(l slog.Level) bool { return l >= slog.LevelError }, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	return slog.New(NewMultiHandler(stdout, stderr)), closers, nil
}
