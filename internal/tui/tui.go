// Package tui provides a Bubble Tea terminal user interface for affinity.
//
// The UI subscribes to the library as a view, shows the loading progress,
// the current and upcoming track and a search over the library, and turns
// key presses into playback feedback.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/handiism/affinity/internal/config"
	"github.com/handiism/affinity/internal/library"
	"github.com/handiism/affinity/internal/model"
	"github.com/handiism/affinity/internal/playback"
	"github.com/handiism/affinity/internal/shuffle"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const (
	maxLogs    = 10
	maxResults = 8
	playedStep = 0.1
)

// State represents the current UI state.
type State int

const (
	StateLoading State = iota
	StatePlaying
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   library.Level
}

// bridge lets library callbacks reach the running program. Model is
// copied on every update, the bridge is shared.
type bridge struct {
	send func(tea.Msg)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	spinner  spinner.Model
	progress progress.Model
	filter   textinput.Model
	settings *config.Settings
	log      zerolog.Logger
	bridge   *bridge
	logs     []LogEntry
	err      error

	ctx    context.Context
	cancel context.CancelFunc

	lib     *library.Library
	session *playback.Session
	release func()

	tracks   []*model.Track
	results  []*model.Track
	current  *model.Track
	upcoming *model.Track
	played   float64
	quitting bool

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings, log zerolog.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "search artist, title, album, genre"
	ti.CharLimit = 200
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateLoading,
		spinner:  sp,
		progress: prog,
		filter:   ti,
		settings: settings,
		log:      log,
		bridge:   &bridge{send: func(tea.Msg) {}},
		logs:     make([]LogEntry, 0, maxLogs),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.openLibrary())
}

// Message types
type (
	// EventMsg carries a library event.
	EventMsg struct {
		Event library.Event
	}

	// OpenedMsg is sent when the library was opened.
	OpenedMsg struct {
		Library *library.Library
		Err     error
	}

	// PopulateMsg is sent when the library populates the view.
	PopulateMsg struct {
		Tracks []*model.Track
	}

	// TrackMsg is sent when the playing track changed.
	TrackMsg struct {
		Current  *model.Track
		Upcoming *model.Track
		Err      error
	}

	// FlushDoneMsg is sent when ratings were written.
	FlushDoneMsg struct {
		Err error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(80, max(20, msg.Width-20))
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case EventMsg:
		m.addLog(msg.Event)

	case OpenedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.lib = msg.Library
		sel := shuffle.NewSelector(m.lib, shuffle.WithUniform(!m.lib.RatingsEnabled()), shuffle.WithLogger(m.log))
		m.session = playback.NewSession(m.lib.Engine(), sel,
			playback.WithFeedback(m.lib.RatingsEnabled()), playback.WithLogger(m.log))
		send := m.bridge.send
		// Subscribe may populate synchronously, while the program loop is
		// busy running this Update.
		m.release = m.lib.Subscribe(library.ViewFunc(func(tracks []*model.Track) {
			go send(PopulateMsg{Tracks: tracks})
		}))
		cmds = append(cmds, m.start())

	case PopulateMsg:
		m.tracks = msg.Tracks
		m.results = search(m.tracks, m.filter.Value())

	case TrackMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.state = StatePlaying
		m.current, m.upcoming = msg.Current, msg.Upcoming
		m.played = 0

	case FlushDoneMsg:
		if msg.Err == nil {
			m.addLog(library.Event{Message: "Ratings saved", Level: library.LevelSuccess})
		}
		if m.quitting {
			m.cancel()
			if m.release != nil {
				m.release()
			}
			return m, tea.Quit
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m.quit()

	case "v":
		m.verbose = !m.verbose
	}

	if m.state != StatePlaying {
		return m, nil
	}

	switch msg.String() {
	case "left":
		m.played = max(0, m.played-playedStep)
	case "right":
		m.played = min(1, m.played+playedStep)
	case "f", "enter":
		return m, m.advance(1, false)
	case "s", "n":
		return m, m.advance(m.played, true)
	case "w":
		return m, m.flush()
	case "/":
		m.filter.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc", "enter":
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.results = search(m.tracks, m.filter.Value())
	return m, cmd
}

func (m *Model) addLog(e library.Event) {
	// Filter verbose messages if not in verbose mode
	if e.Level == library.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func search(tracks []*model.Track, filter string) []*model.Track {
	if filter == "" {
		return nil
	}
	var out []*model.Track
	for _, t := range tracks {
		if t.Matches(filter) {
			out = append(out, t)
			if len(out) == maxResults {
				break
			}
		}
	}
	return out
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♪ affinity"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.settings.LibraryPath))
	b.WriteString("\n\n")

	switch m.state {
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StatePlaying:
		b.WriteString(m.viewPlaying())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.lib != nil {
		dirs, files := m.lib.Progress()
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Scanning library... %d directories, %d files", dirs, files)))
	} else {
		b.WriteString(subtitleStyle.Render("Opening library..."))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewPlaying() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"Now playing  %s\nUp next      %s\n\n%s",
		trackStyle.Render(describe(m.current)),
		describe(m.upcoming),
		m.progress.ViewAs(m.played),
	))
	b.WriteString(box)
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Tracks: %d | Heard: %.0f%%", len(m.tracks), m.played*100)))
	b.WriteString("\n\n")

	if m.filter.Focused() || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
		for _, t := range m.results {
			b.WriteString(m.renderResult(t))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderResult(t *model.Track) string {
	line := fmt.Sprintf("  ♪ %s", t)
	if m.lib == nil || m.current == nil {
		return line
	}
	return fmt.Sprintf("%s %s", line, dimStyle.Render(fmt.Sprintf("(%.1f)", m.lib.Engine().Rating(m.current, t))))
}

func describe(t *model.Track) string {
	if t == nil {
		return "-"
	}
	return t.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case library.LevelError:
			style = errorStyle
			prefix = "✗"
		case library.LevelWarning:
			style = warningStyle
			prefix = "!"
		case library.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case library.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch {
	case m.filter.Focused():
		return "enter/esc: close search"
	case m.state == StatePlaying:
		return "f: finished • s: skip • ←/→: heard • /: search • w: save ratings • v: verbose • q: quit"
	}
	return "v: verbose • q: quit"
}

// openLibrary opens the library in the background.
func (m Model) openLibrary() tea.Cmd {
	b := m.bridge
	return func() tea.Msg {
		lib, err := library.Open(m.ctx, m.settings,
			library.WithLogger(m.log),
			library.WithEvents(func(e library.Event) {
				b.send(EventMsg{Event: e})
			}))
		return OpenedMsg{Library: lib, Err: err}
	}
}

// start picks the first track once the library has loaded.
func (m Model) start() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		current, err := session.Start(ctx)
		if errors.Is(err, shuffle.ErrEmptyLibrary) {
			err = fmt.Errorf("no playable files in %s", m.settings.LibraryPath)
		}
		return TrackMsg{Current: current, Upcoming: session.Upcoming(), Err: err}
	}
}

// advance records feedback for the current track and moves on.
func (m Model) advance(played float64, skipped bool) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		current, err := session.Advance(ctx, played, skipped)
		return TrackMsg{Current: current, Upcoming: session.Upcoming(), Err: err}
	}
}

// flush writes the ratings file.
// quit saves the ratings and exits once they are written. Asking again
// while the write is pending exits at once.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.quitting || m.lib == nil {
		m.cancel()
		if m.release != nil {
			m.release()
		}
		return m, tea.Quit
	}
	m.quitting = true
	return m, m.flush()
}

func (m Model) flush() tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return FlushDoneMsg{Err: lib.Flush(ctx)}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, log zerolog.Logger) error {
	m := NewModel(settings, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.bridge.send = p.Send
	_, err := p.Run()
	return err
}
