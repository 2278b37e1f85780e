package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/portfolio-finder/internal/state"
)

// renderStatusBar renders the controller phase, the last message and the
// active settings. Errors use the danger style.
func (m Model) renderStatusBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var snap state.Snapshot
	if m.finder != nil {
		snap = m.finder.Snapshot()
	}
	phase := snap.Phase.String()
	left := styles.PhaseStyle(phase).Render(phase) + bg.Space()
	if snap.ConsecutiveFailures > 0 {
		streak := fmt.Sprintf("%d failed, last %s", snap.ConsecutiveFailures, snap.LastFailure.Format("15:04:05"))
		left += bg.Render(streak, styles.WarningText) + bg.Space()
	}
	if m.searching {
		left += m.spinner.View() + bg.Space()
	}

	right := bg.Render(fmt.Sprintf("max %d", m.maxCount), styles.MutedText) +
		bg.Spaces(2) +
		bg.Render(m.theme.Name, styles.FaintText)

	msgStyle := styles.Text
	if m.statusErr {
		msgStyle = styles.DangerText
	}
	avail := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right) - 2
	msg := truncate(singleLine(m.status), maxInt(1, avail))
	gap := maxInt(1, avail-runewidth.StringWidth(msg)+2)

	return styles.Header.Width(m.width).MaxHeight(1).Render(
		left + bg.Render(msg, msgStyle) + bg.Spaces(gap) + right,
	)
}
