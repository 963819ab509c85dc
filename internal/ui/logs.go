package ui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stylefix/internal/logtail"
)

const maxLogLines = 500

type logState struct {
	entries  []logtail.Entry
	follow   bool
	minLevel slog.Level
	err      error
}

var logLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

type logsMsg struct {
	entries []logtail.Entry
}

type logErrorMsg struct {
	err error
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, maxLogLines)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logsMsg{entries: logtail.ParseAll(lines)}
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, loadLogsCmd(m.logPath)
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.minLevel = nextLevel(m.logState.minLevel)
		m.updateLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	if !m.logViewport.AtBottom() {
		m.logState.follow = false
	}
	return m, cmd
}

func nextLevel(current slog.Level) slog.Level {
	for i, l := range logLevels {
		if l == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

func (m *Model) resizeLogViewport() {
	m.logViewport.Width = m.width
	m.logViewport.Height = m.contentHeight() - 1
	if m.logViewport.Height < 1 {
		m.logViewport.Height = 1
	}
}

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles()
	entries := logtail.Filter(m.logState.entries, m.logState.minLevel)

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, renderLogEntry(styles, e))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func renderLogEntry(styles Styles, e logtail.Entry) string {
	if e.Time.IsZero() && len(e.Attrs) == 0 {
		return styles.Text.Render(e.Message)
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
		b.WriteString(" ")
	}
	b.WriteString(styles.LevelStyle(e.Level).Render(padLevel(e.Level)))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(e.Message))
	for _, a := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(styles.AccentText.Render(a.Key + "="))
		b.WriteString(styles.MutedText.Render(a.Value))
	}
	return b.String()
}

func padLevel(l slog.Level) string {
	s := l.String()
	if len(s) < 5 {
		s += strings.Repeat(" ", 5-len(s))
	}
	return s
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()

	title := styles.AccentText.Bold(true).Render("Logs")
	if m.logPath != "" {
		title += " " + styles.MutedText.Render(truncateMiddle(m.logPath, 60))
	}
	follow := "off"
	if m.logState.follow {
		follow = "on"
	}
	title += "  " + styles.FaintText.Render("follow:"+follow+"  level:"+m.logState.minLevel.String()+"+")
	if m.logState.err != nil {
		title += "  " + styles.DangerText.Render(m.logState.err.Error())
	}

	body := m.logViewport.View()
	if len(m.logState.entries) == 0 {
		msg := "No log lines yet."
		if m.logPath == "" {
			msg = "Logging to stderr; no log file to show."
		}
		body = styles.MutedText.Render(msg)
	}
	return title + "\n" + body
}
