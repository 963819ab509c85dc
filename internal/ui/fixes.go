package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/stylesheet"
)

// renderFixes renders the applied list above the selected fix's CSS block.
func (m Model) renderFixes() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	applied := m.snapshot.Applied

	if len(applied) == 0 {
		msg := "No fixes applied."
		if m.snapshot.Running {
			msg += " Pending fixes appear here after the next poll."
		} else {
			msg += " Press s to start polling."
		}
		return lipgloss.NewStyle().Height(height).Render(styles.MutedText.Render(msg))
	}

	tableRows := height / 2
	if tableRows < 3 {
		tableRows = 3
	}
	table := m.renderFixTable(tableRows)

	detailHeight := height - lipgloss.Height(table)
	detail := ""
	if fix := m.selectedFix(); fix != nil && detailHeight > 2 {
		detail = m.renderFixDetail(fix, detailHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, table, detail)
}

func (m Model) renderFixTable(rows int) string {
	styles := m.theme.Styles()
	applied := m.snapshot.Applied

	idWidth, selWidth := columnWidths(m.width)
	header := fmt.Sprintf(" %3s  %-*s  %-*s  %7s  %8s", "#", idWidth, "ID", selWidth, "SELECTOR", "CHANGES", "PRIORITY")

	var b strings.Builder
	b.WriteString(styles.FaintText.Bold(true).Render(header))

	start, end := visibleRange(m.selected, len(applied), rows-1)
	for i := start; i < end; i++ {
		f := applied[i]
		line := fmt.Sprintf(" %3d  %-*s  %-*s  %7d  %8d",
			i+1,
			idWidth, truncateMiddle(f.ID, idWidth),
			selWidth, truncateMiddle(f.Selector(), selWidth),
			len(f.Changes),
			f.Priority)
		b.WriteString("\n")
		if i == m.selected {
			b.WriteString(styles.Selected.Width(m.width).Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
	}
	return b.String()
}

func (m Model) renderFixDetail(fix *fixes.Fix, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)

	lines := []string{
		bg.Render(fix.ID, styles.AccentText.Bold(true)) + bg.Spaces(2) +
			styles.StatusStyle(string(fix.Status)).Render(string(fix.Status)),
	}
	for _, l := range strings.Split(strings.TrimRight(stylesheet.Block(fix), "\n"), "\n") {
		lines = append(lines, bg.Render(l, styles.Text))
	}
	for _, c := range fix.Changes {
		if strings.TrimSpace(c.Reason) == "" {
			continue
		}
		lines = append(lines, bg.Render(c.Property+": "+c.Reason, styles.MutedText))
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return styles.Panel.Width(m.width).Height(height).Render(strings.Join(lines, "\n"))
}

// columnWidths splits the spare width between the id and selector columns.
func columnWidths(width int) (id, selector int) {
	const fixed = 3 + 2 + 2 + 2 + 7 + 2 + 8 + 1
	spare := width - fixed
	if spare < 20 {
		spare = 20
	}
	id = spare / 3
	if id > 36 {
		id = 36
	}
	return id, spare - id
}

// visibleRange returns the window [start, end) of a list of count rows that
// keeps selected in view with at most rows rows shown.
func visibleRange(selected, count, rows int) (int, int) {
	if rows <= 0 || count <= 0 {
		return 0, 0
	}
	if count <= rows {
		return 0, count
	}
	start := selected - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > count {
		start = count - rows
	}
	return start, start + rows
}
