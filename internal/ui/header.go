package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the engine status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	state := "stopped"
	if snap.Running {
		state = "running"
	}
	parts := []string{
		bg.Render("stylefix", styles.Logo),
		styles.StatusStyle(state).Render(strings.ToUpper(state)),
	}
	if snap.IsOffline() {
		parts = append(parts, styles.StatusStyle("offline").Render("BACKEND OFFLINE"))
	}
	if m.appID != "" {
		parts = append(parts, bg.Render("app", styles.FaintText)+bg.Spaces(1)+bg.Render(m.appID, styles.AccentText))
	}
	parts = append(parts,
		bg.Render("applied", styles.FaintText)+bg.Spaces(1)+bg.Render(fmt.Sprint(len(snap.Applied)), styles.Text),
		bg.Render("cycles", styles.FaintText)+bg.Spaces(1)+bg.Render(fmt.Sprint(snap.Cycles), styles.Text),
	)
	if !snap.LastPoll.IsZero() {
		parts = append(parts, bg.Render("last poll", styles.FaintText)+bg.Spaces(1)+
			bg.Render(snap.LastPoll.Format("15:04:05"), styles.MutedText))
	}
	if snap.LastError != nil && !snap.IsOffline() {
		parts = append(parts, bg.Render("poll error", styles.WarningText.Bold(true)))
	}
	if m.pageURL != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.pageURL, 40), styles.MutedText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the short key help.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		desc := strings.ToLower(strings.Fields(h.Desc)[0])
		parts = append(parts, bg.Render(h.Key, styles.AccentText)+bg.Spaces(1)+bg.Render(desc, styles.MutedText))
	}
	if m.bridgeAddr != "" {
		parts = append(parts, bg.Render("bridge "+m.bridgeAddr, styles.FaintText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

// renderFlash renders the last action result, or the error from the last
// poll when there is nothing newer to say.
func (m Model) renderFlash() string {
	styles := m.theme.Styles()
	switch {
	case m.flash != "" && m.flashErr:
		return styles.WarningText.Render(m.flash)
	case m.flash != "":
		return styles.SuccessText.Render(m.flash)
	case m.snapshot.LastError != nil:
		return styles.DangerText.Render("poll: " + m.snapshot.LastError.Error())
	case !m.lastUpdated.IsZero():
		return styles.FaintText.Render("updated " + m.lastUpdated.Format(time.TimeOnly))
	}
	return ""
}

// truncateMiddle shortens s to max runes with an ellipsis in the middle.
func truncateMiddle(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	keep := max - 1
	head := keep / 2
	tail := keep - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}
