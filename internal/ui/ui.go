// Package ui implements a command-line user interface using [tea]. It is
// only started for interactive runs; the provisioning deployment never sees
// it.
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/nfsup/internal/status"
)

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	tracker *status.Tracker
	program *tea.Program

	LogWriter *TeaLogWriter

	Initialized atomic.Bool
	Ready       atomic.Bool
	Failed      atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler].
func NewHandler(ctx context.Context, cancel context.CancelFunc, tracker *status.Tracker) *Handler {
	handler := &Handler{
		tracker: tracker,
	}

	model := NewTeaModel(handler, tracker, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]).
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}
