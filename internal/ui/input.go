package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/portfolio-finder/internal/pam"
)

// Input bar labels. Compact layouts drop them.
const (
	typeLabel   = "Type:"
	searchLabel = "Search:"
)

// categoryWidth is the width of the widest category label with its arrows.
func categoryWidth() int {
	w := 0
	for _, c := range pam.Categories() {
		w = maxInt(w, runewidth.StringWidth(c.Label()))
	}
	return w + 4
}

// inputBarChrome is the width taken by everything on the input bar except the
// query field.
func inputBarChrome(width int) int {
	chrome := 2 + categoryWidth() + 3
	if width >= LayoutCompactWidth {
		chrome += runewidth.StringWidth(typeLabel) + 1 + runewidth.StringWidth(searchLabel) + 1
	}
	return chrome
}

// renderInputBar renders the portfolio type selector and the query field.
// Both are dimmed while a search is running.
func (m Model) renderInputBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	labelStyle := styles.MutedText
	valueStyle := styles.Text
	if m.searching {
		labelStyle = styles.FaintText
		valueStyle = styles.FaintText
	}

	typeStyle := valueStyle
	if m.focus == focusType && !m.searching {
		typeStyle = styles.AccentText.Bold(true)
	}
	category := "‹ " + padRight(m.category.Label(), categoryWidth()-4) + " ›"

	var out string
	if !compact {
		out += bg.Render(typeLabel, labelStyle) + bg.Space()
	}
	out += bg.Render(category, typeStyle)
	out += bg.Render(" │ ", styles.FaintText)
	if !compact {
		searchStyle := labelStyle
		if m.focus == focusQuery && !m.searching {
			searchStyle = styles.AccentText
		}
		out += bg.Render(searchLabel, searchStyle) + bg.Space()
	}

	query := m.query
	query.TextStyle = valueStyle
	query.PlaceholderStyle = styles.FaintText
	out += query.View()

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Padding(0, 1).
		Width(m.width).
		MaxHeight(1).
		Render(out)
}
