package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/desertthunder/likesync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// maxLogLines bounds the activity tail so long runs don't scroll the
// terminal off-screen.
const maxLogLines = 12

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	engine tasks.SyncEngine

	view     ViewState
	spinner  spinner.Model
	progress tasks.ProgressUpdate
	log      []string
	result   *tasks.SyncRunResult
	err      error

	progressChan chan tasks.ProgressUpdate
	doneChan     chan syncCompleteMsg

	width  int
	height int
	help   help.Model
	keys   keyMap
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.SyncRunResult
	err    error
}

// NewModel creates a TUI model that will drive the given engine. The engine
// runs under a derived context so quitting the TUI also stops the sync.
func NewModel(ctx context.Context, engine tasks.SyncEngine) *Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		engine:  engine,
		view:    RunView,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the sync in the background and begins pumping progress updates.
func (m *Model) Init() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan syncCompleteMsg, 1)

	go func() {
		result, err := m.engine.Run(m.ctx, m.progressChan)
		close(m.progressChan)
		m.doneChan <- syncCompleteMsg{result: result, err: err}
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		m.appendLog(m.progress)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// appendLog keeps a bounded tail of per-track activity. Paging and
// housekeeping phases update the headline instead.
func (m *Model) appendLog(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.SearchTrack, tasks.LikeTrack, tasks.SkipTrack:
		m.log = append(m.log, update.Message)
		if len(m.log) > maxLogLines {
			m.log = m.log[len(m.log)-maxLogLines:]
		}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg(<-m.doneChan)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Syncing Liked Tracks")

	headline := m.progress.Message
	if headline == "" {
		headline = "Starting..."
	}
	if m.progress.Total > 0 {
		headline = fmt.Sprintf("%s (%d/%d)", headline, m.progress.Step, m.progress.Total)
	}

	var tail string
	if len(m.log) > 0 {
		tail = "\n" + styles.help.Render(strings.Join(m.log, "\n"))
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s %s\n%s\n\n%s", title, m.spinner.View(), headline, tail, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err)),
			helpView,
		)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Sync Complete")
	if m.result.DryRun {
		title = styles.ok.Render("✓ Dry Run Complete")
	}

	info := fmt.Sprintf(
		"\nNew tracks: %d\nLiked: %d\nNot found: %d\nFailed: %d",
		m.result.Total,
		m.result.Liked,
		m.result.NotFound,
		m.result.Failed,
	)

	var problems string
	if m.result.NotFound > 0 || m.result.Failed > 0 {
		problems = "\n\n" + styles.warn.Render("Needs attention:")
		for _, item := range m.result.Results {
			if item.Outcome == tasks.OutcomeNotFound || item.Outcome == tasks.OutcomeFailed {
				problems += fmt.Sprintf("\n  • %s (%s)", item.Track.Label(), item.Outcome)
			}
		}
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, problems, helpView)
}

// outcome resolves what Run reports once the program has exited. Quitting
// before the engine delivered a result counts as a cancellation, never as
// a successful run.
func (m *Model) outcome() (*tasks.SyncRunResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return nil, fmt.Errorf("%w: quit before the sync finished", shared.ErrCancelled)
	}
	return m.result, nil
}

// Run starts the bubbletea program and blocks until it exits, returning the
// engine's result so the CLI can report and set exit codes.
func Run(ctx context.Context, engine tasks.SyncEngine) (*tasks.SyncRunResult, error) {
	model := NewModel(ctx, engine)
	defer model.cancel()

	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return nil, fmt.Errorf("failed to run TUI: %w", err)
	}

	return model.outcome()
}
