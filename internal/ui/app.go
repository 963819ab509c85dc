package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/prefs"
	"github.com/five82/stylefix/internal/state"
)

// Engine is the control surface the console drives. *bridge.Handle
// satisfies it.
type Engine interface {
	Start(ctx context.Context) bool
	Stop()
	RollbackFix(ctx context.Context, id string) bool
	ClearAll(ctx context.Context)
}

// Options configures the console.
type Options struct {
	Context       context.Context
	Engine        Engine
	Store         *state.Store
	ApplicationID string
	PageURL       string
	BridgeAddr    string
	LogPath       string
	PollTick      time.Duration
	ThemeName     string
	View          prefs.View
	PrefsPath     string
}

// Model is the root console state for Bubble Tea.
type Model struct {
	ctx        context.Context
	engine     Engine
	store      *state.Store
	appID      string
	pageURL    string
	bridgeAddr string
	logPath    string
	prefsPath  string
	pollTick   time.Duration

	keys   keyMap
	theme  Theme
	view   prefs.View
	width  int
	height int
	ready  bool

	snapshot    state.Snapshot
	lastUpdated time.Time
	selected    int

	showHelp     bool
	confirmClear bool
	flash        string
	flashErr     bool

	logViewport viewport.Model
	logState    logState
}

// New creates the console model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	view := opts.View
	if view != prefs.ViewLogs {
		view = prefs.ViewFixes
	}

	return Model{
		ctx:        ctx,
		engine:     opts.Engine,
		store:      opts.Store,
		appID:      opts.ApplicationID,
		pageURL:    opts.PageURL,
		bridgeAddr: opts.BridgeAddr,
		logPath:    opts.LogPath,
		prefsPath:  prefsPath,
		pollTick:   pollTick,
		keys:       DefaultKeyMap(),
		theme:      GetTheme(opts.ThemeName),
		view:       view,
		logState:   logState{follow: true, minLevel: slog.LevelDebug},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.view == prefs.ViewLogs {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logViewport = viewport.New(m.width, m.contentHeight()-1)
		}
		m.ready = true
		m.resizeLogViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampSelection()
		return m, nil

	case actionMsg:
		m.flash = msg.text
		m.flashErr = msg.err
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case logsMsg:
		m.logState.entries = msg.entries
		m.logState.err = nil
		m.updateLogViewport()
		return m, nil

	case logErrorMsg:
		m.logState.err = msg.err
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.view {
	case prefs.ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderFixes())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFlash())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.confirmClear {
		m.confirmClear = false
		if key.Matches(msg, m.keys.Clear) {
			return m, clearCmd(m.ctx, m.engine)
		}
		m.setFlash("clear cancelled", false)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.view == prefs.ViewLogs {
			return m.switchView(prefs.ViewFixes)
		}
		return m.switchView(prefs.ViewLogs)

	case key.Matches(msg, m.keys.ViewFixes):
		return m.switchView(prefs.ViewFixes)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(prefs.ViewLogs)

	case key.Matches(msg, m.keys.Start):
		return m, startCmd(m.ctx, m.engine)

	case key.Matches(msg, m.keys.Stop):
		return m, stopCmd(m.engine)

	case key.Matches(msg, m.keys.Rollback):
		fix := m.selectedFix()
		if fix == nil {
			m.setFlash("no fix selected", true)
			return m, nil
		}
		return m, rollbackCmd(m.ctx, m.engine, fix.ID)

	case key.Matches(msg, m.keys.Clear):
		if len(m.snapshot.Applied) == 0 {
			m.setFlash("nothing to clear", false)
			return m, nil
		}
		m.confirmClear = true
		m.setFlash(fmt.Sprintf("press c again to clear %d applied fixes", len(m.snapshot.Applied)), true)
		return m, nil
	}

	switch m.view {
	case prefs.ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleFixesKey(msg)
	}
}

func (m Model) switchView(v prefs.View) (tea.Model, tea.Cmd) {
	m.view = v
	m.savePrefs()
	if v == prefs.ViewLogs {
		return m, loadLogsCmd(m.logPath)
	}
	return m, nil
}

func (m Model) handleFixesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Applied)
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < count-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.view == prefs.ViewLogs && m.logState.follow {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, View: m.view})
}

func (m *Model) clampSelection() {
	count := len(m.snapshot.Applied)
	if m.selected >= count {
		m.selected = count - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) selectedFix() *fixes.Fix {
	if m.selected < 0 || m.selected >= len(m.snapshot.Applied) {
		return nil
	}
	fix := m.snapshot.Applied[m.selected]
	return &fix
}

// contentHeight is the space left under the header, command bar and flash
// line.
func (m Model) contentHeight() int {
	h := m.height - 3
	if h < 1 {
		return 1
	}
	return h
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type actionMsg struct {
	text string
	err  bool
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func startCmd(ctx context.Context, e Engine) tea.Cmd {
	return func() tea.Msg {
		if e.Start(ctx) {
			return actionMsg{text: "polling started"}
		}
		return actionMsg{text: "polling already running"}
	}
}

func stopCmd(e Engine) tea.Cmd {
	return func() tea.Msg {
		e.Stop()
		return actionMsg{text: "polling stopped"}
	}
}

func rollbackCmd(ctx context.Context, e Engine, id string) tea.Cmd {
	return func() tea.Msg {
		if e.RollbackFix(ctx, id) {
			return actionMsg{text: "rolled back " + id}
		}
		return actionMsg{text: "rollback failed: " + id + " is not applied", err: true}
	}
}

func clearCmd(ctx context.Context, e Engine) tea.Cmd {
	return func() tea.Msg {
		e.ClearAll(ctx)
		return actionMsg{text: "all fixes cleared"}
	}
}

// Run starts the console and blocks until the user quits or ctx ends.
func Run(opts Options) error {
	m := New(opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, progOpts...)
	_, err := p.Run()
	if err != nil && opts.Context != nil && opts.Context.Err() != nil {
		// Shutdown, not a console failure.
		return nil
	}
	return err
}
