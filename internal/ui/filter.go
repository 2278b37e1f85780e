package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/portfolio-finder/internal/portfolio"
)

const allFamiliesLabel = "(all families)"

// filterChosenMsg is emitted when a family is picked. Clear means show all
// rows. source is the result set the families were listed from.
type filterChosenMsg struct {
	Value  string
	Clear  bool
	source *portfolio.Model
}

// filterModal lists the distinct family values of the current result set.
type filterModal struct {
	source   *portfolio.Model
	families []string
	cursor   int // 0 is the "all families" entry
}

func newFilterModal(source *portfolio.Model, families []string, active string, filtering bool) *filterModal {
	f := &filterModal{source: source, families: append([]string(nil), families...)}
	if filtering {
		for i, fam := range f.families {
			if fam == active {
				f.cursor = i + 1
				break
			}
		}
	}
	return f
}

func (f *filterModal) entries() int {
	return len(f.families) + 1
}

func (f *filterModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Escape):
		return f, nil, true
	case key.Matches(keyMsg, keys.Up):
		if f.cursor > 0 {
			f.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if f.cursor < f.entries()-1 {
			f.cursor++
		}
	case key.Matches(keyMsg, keys.Confirm):
		chosen := filterChosenMsg{Clear: true, source: f.source}
		if f.cursor > 0 {
			chosen = filterChosenMsg{Value: f.families[f.cursor-1], source: f.source}
		}
		return f, func() tea.Msg { return chosen }, true
	}
	return f, nil, false
}

func (f *filterModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Filter by family"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i := 0; i < f.entries(); i++ {
		label := allFamiliesLabel
		if i > 0 {
			label = f.families[i-1]
			if label == "" {
				label = "(none)"
			}
		}
		label = truncate(label, 34)
		if i == f.cursor {
			b.WriteString(styles.Selected.Render("› " + padRight(label, 34)))
		} else {
			b.WriteString(styles.Text.Render("  " + label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Enter: Apply  •  Esc: Cancel"))
	return renderModalBox(theme, b.String(), 42, width, height)
}
