package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/nfsup/internal/status"
	"github.com/dustin/go-humanize"
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

const (
	progressPollInterval = 100 * time.Millisecond
	logBacklogMax        = 100
)

// ProgressMsg is a [tea.Msg] containing a [status.Progress] snapshot.
type ProgressMsg struct {
	t    time.Time
	data status.Progress
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler
	tracker   *status.Tracker

	fullWidthWithBorders int

	data status.Progress

	mountProgress progress.Model
	logsViewport  viewport.Model
	logs          []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, tracker *status.Tracker, cancel context.CancelFunc) TeaModel {
	mountProgress := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(80),
	)

	logsViewport := viewport.New(80, 20)

	return TeaModel{
		uiHandler:     uiHandler,
		tracker:       tracker,
		mountProgress: mountProgress,
		data:          status.Progress{},
		logsViewport:  logsViewport,
		logs:          make([]string, 0, logBacklogMax),
		cancel:        cancel,
		ready:         false,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	m.uiHandler.Initialized.Store(true)

	return tea.Batch(
		tea.EnterAltScreen,
		updateProgress(m.tracker),
	)
}

// updateProgress produces a [tea.Cmd] for later scheduling in a
// [tea.Program]. When executed, a [ProgressMsg] with the [status.Tracker]'s
// current [status.Progress] is returned.
func updateProgress(tracker *status.Tracker) tea.Cmd {
	return tea.Tick(progressPollInterval, func(t time.Time) tea.Msg {
		return ProgressMsg{
			t:    t,
			data: tracker.Progress(),
		}
	})
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2

		m.mountProgress.Width = m.fullWidthWithBorders

		// The status panel is fixed; the viewport takes the remaining
		// height minus borders and titles.
		viewportHeight := m.height - 14 //nolint:mnd

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = viewportHeight

		if len(m.logs) > 0 {
			logs := lipgloss.NewStyle().
				Width(m.logsViewport.Width).
				Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

			m.logsViewport.SetContent(logs)
			m.logsViewport.GotoBottom()
		}

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case ProgressMsg:
		m.data = msg.data

		percent := 0.0
		if m.data.Exports > 0 {
			percent = float64(m.data.Processed()) / float64(m.data.Exports)
		}

		cmds = append(cmds,
			m.mountProgress.SetPercent(percent),
			updateProgress(m.tracker),
		)

	case LogMsg:
		logMsg := string(msg)

		if len(m.logs) >= logBacklogMax {
			m.logs = m.logs[1:]
		}

		m.logs = append(m.logs, logMsg)

		logs := lipgloss.NewStyle().
			Width(m.logsViewport.Width).
			Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

		m.logsViewport.SetContent(logs)
		m.logsViewport.GotoBottom()

	case progress.FrameMsg:
		updatedMount, cmd := m.mountProgress.Update(msg)
		if progressModel, ok := updatedMount.(progress.Model); ok {
			m.mountProgress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	// Handle viewport updates.
	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the UI..."
	}

	var s strings.Builder

	statusSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("NFS Auto-Mounter"),
				"", // Empty line for spacing.
				m.mountProgress.View(),
				"", // Empty line for spacing.
				infoStyle.Width(m.fullWidthWithBorders).Render(m.formatStatusView()),
			),
		)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Process Information"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("q: quit ui • ctrl+c: cancel run")

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		statusSection,
		logsSection,
		helpSection,
	))

	return s.String()
}

// formatStatusView is a helper function for rendering the status panel.
func (m TeaModel) formatStatusView() string {
	started := "-"
	if !m.data.StartTime.IsZero() {
		started = humanize.Time(m.data.StartTime)
	}

	return fmt.Sprintf(
		"Phase: %s\n"+
			"Servers: %d found\n"+
			"Exports: %d found, %d/%d attempted\n"+
			"Mounts: Success=%d, Failed=%d\n"+
			"Started: %s\n",
		m.data.Phase,
		m.data.Hosts,
		m.data.Exports,
		m.data.Processed(),
		m.data.Exports,
		m.data.MountsOK,
		m.data.MountsFailed,
		started,
	)
}
