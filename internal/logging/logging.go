// Package logging provides the principal logging facilities. A single
// [Manager] implements [slog.Handler] and multiplexes every record to a set
// of named destination handlers, so the same stream can be teed to the
// console, the log file and the user interface. Error records are routed to
// an additional error-stream handler.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// Names of the well-known destination handlers.
const (
	HandlerConsole = "console"
	HandlerFile    = "file"
	HandlerErrors  = "errors"
	HandlerUI      = "ui"
)

const logFilePerm = 0o644

// Manager is a multiplexing [slog.Handler] fanning out to named handlers.
type Manager struct {
	sync.RWMutex
	handlers map[string]slog.Handler
	attrs    []slog.Attr
	groups   []string
}

// NewManager returns a pointer to a new, empty [Manager].
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[string]slog.Handler),
	}
}

// Enabled reports whether any destination handler accepts the given level.
func (m *Manager) Enabled(ctx context.Context, level slog.Level) bool {
	m.RLock()
	defer m.RUnlock()

	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle passes the record to every destination handler.
func (m *Manager) Handle(ctx context.Context, r slog.Record) error {
	m.RLock()
	defer m.RUnlock()

	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r)
		}
	}

	return nil
}

// WithAttrs returns a new [Manager] with the attributes applied to all
// destination handlers.
func (m *Manager) WithAttrs(attrs []slog.Attr) slog.Handler {
	m.Lock()
	defer m.Unlock()

	groups := make([]string, len(m.groups))
	copy(groups, m.groups)

	newM := &Manager{
		handlers: make(map[string]slog.Handler, len(m.handlers)),
		attrs:    append(m.attrs, attrs...),
		groups:   groups,
	}

	for name, h := range m.handlers {
		newM.handlers[name] = h.WithAttrs(attrs)
	}

	return newM
}

// WithGroup returns a new [Manager] with the group applied to all destination
// handlers.
func (m *Manager) WithGroup(name string) slog.Handler {
	m.Lock()
	defer m.Unlock()

	attrs := make([]slog.Attr, len(m.attrs))
	copy(attrs, m.attrs)

	newM := &Manager{
		handlers: make(map[string]slog.Handler, len(m.handlers)),
		attrs:    attrs,
		groups:   append(m.groups, name),
	}

	for handlerName, h := range m.handlers {
		newM.handlers[handlerName] = h.WithGroup(name)
	}

	return newM
}

// GetHandler returns the destination handler registered under name.
func (m *Manager) GetHandler(name string) (slog.Handler, bool) {
	m.RLock()
	defer m.RUnlock()

	h, ok := m.handlers[name]

	return h, ok
}

// AddHandler registers a destination handler under name, replaying any
// previously applied attributes and groups onto it.
func (m *Manager) AddHandler(name string, handler slog.Handler) {
	m.Lock()
	defer m.Unlock()

	h := handler
	for _, attr := range m.attrs {
		h = h.WithAttrs([]slog.Attr{attr})
	}

	for _, group := range m.groups {
		h = h.WithGroup(group)
	}

	m.handlers[name] = h
}

// RemoveHandler unregisters the destination handler under name.
func (m *Manager) RemoveHandler(name string) {
	m.Lock()
	defer m.Unlock()

	delete(m.handlers, name)
}

// NewConsoleHandler returns a human-readable, timestamped handler for
// interactive output.
func NewConsoleHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
}

// NewFileHandler returns a plain text handler with parsable RFC3339
// timestamps, for the append-only log file.
func NewFileHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewErrorHandler returns a handler passing only error-level records, for
// routing to the error stream in addition to the log file.
func NewErrorHandler(w io.Writer) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelError,
		TimeFormat: time.Kitchen,
	})
}

// OpenLogFile opens the append-only log file, creating it if absent.
func OpenLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePerm)
}
