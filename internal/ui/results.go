package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/portfolio-finder/internal/portfolio"
)

// Column header markers.
const (
	cursorMarker   = "›"
	ascendingMark  = "▲"
	descendingMark = "▼"
)

// newResultsTable creates the results table with navigation keys that do not
// collide with the application bindings.
func newResultsTable(theme Theme) table.Model {
	km := table.DefaultKeyMap()
	km.PageUp = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown", " "), key.WithHelp("pgdn", "page down"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "½ page up"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down"))

	return table.New(
		table.WithColumns([]table.Column{{Title: "", Width: 1}}),
		table.WithFocused(false),
		table.WithKeyMap(km),
		table.WithStyles(tableStyles(theme)),
	)
}

// tableStyles builds bubbles table styles from the theme.
func tableStyles(theme Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true)
	s.Cell = s.Cell.Foreground(lipgloss.Color(theme.Text))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(theme.SelectionText)).
		Background(lipgloss.Color(theme.SelectionBg)).
		Bold(false)
	return s
}

// handleTableKey handles column navigation, sorting, filtering and copying.
func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results == nil {
		return m, nil
	}
	cols := len(m.results.Schema().Columns)

	// The view is about to be replaced while a search runs.
	if m.searching && (key.Matches(msg, m.keys.Sort) || key.Matches(msg, m.keys.Filter) || key.Matches(msg, m.keys.ClearView)) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		if m.colCursor > 0 {
			m.colCursor--
			m.refreshTable(false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.colCursor < cols-1 {
			m.colCursor++
			m.refreshTable(false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Sort):
		m.toggleSort()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		if !m.results.Filterable() {
			return m, nil
		}
		active, filtering := m.results.ActiveFilter()
		m.modal = newFilterModal(m.results, m.results.Families(), active, filtering)
		return m, nil

	case key.Matches(msg, m.keys.ClearView):
		if _, filtering := m.results.ActiveFilter(); !filtering {
			return m, nil
		}
		m.results.ClearFilter()
		m.refreshTable(false)
		m.setStatus(m.results.StatusMessage())
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		text, ok := m.results.Cell(m.table.Cursor(), m.colCursor)
		if !ok {
			return m, nil
		}
		return m, copyCmd(m.clipboard, text)

	case key.Matches(msg, m.keys.Escape):
		m.setFocus(focusQuery)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// toggleSort sorts by the cursor column, flipping the order when that column
// is already sorted ascending.
func (m *Model) toggleSort() {
	order := portfolio.Ascending
	if col, current, ok := m.results.SortState(); ok && col == m.colCursor && current == portfolio.Ascending {
		order = portfolio.Descending
	}
	if err := m.results.Sort(m.colCursor, order); err != nil {
		m.logger.Warn().Err(err).Msg("sort results")
		return
	}
	m.refreshTable(false)
}

// refreshTable copies the results view into the table widget. reset moves
// the row cursor back to the top.
func (m *Model) refreshTable(reset bool) {
	if m.results == nil {
		return
	}
	cols := tableColumns(m.results, m.colCursor)
	rows := tableRows(m.results, cols)

	// Rows must never be wider than the columns while the layout changes.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if reset {
		m.table.SetCursor(0)
	} else {
		m.table.SetCursor(minInt(m.table.Cursor(), maxInt(0, len(rows)-1)))
	}
}

// tableColumns sizes every column to its widest cell within the configured bounds.
func tableColumns(results *portfolio.Model, cursor int) []table.Column {
	sortCol, order, sorted := results.SortState()
	schema := results.Schema()

	cols := make([]table.Column, len(schema.Columns))
	for i, c := range schema.Columns {
		title := c.Label
		if sorted && i == sortCol {
			mark := ascendingMark
			if order == portfolio.Descending {
				mark = descendingMark
			}
			title = title + " " + mark
		}
		if i == cursor {
			title = cursorMarker + " " + title
		}

		width := runewidth.StringWidth(title)
		for _, r := range results.Rows() {
			width = maxInt(width, runewidth.StringWidth(singleLine(r.Cells[i])))
		}
		width = minInt(maxInt(width, ColumnMinWidth), ColumnMaxWidth)
		cols[i] = table.Column{Title: truncate(title, width), Width: width}
	}
	return cols
}

// tableRows renders the displayed rows as single-line, width-limited cells.
func tableRows(results *portfolio.Model, cols []table.Column) []table.Row {
	view := results.Rows()
	rows := make([]table.Row, len(view))
	for i, r := range view {
		row := make(table.Row, len(cols))
		for j := range cols {
			if j < len(r.Cells) {
				row[j] = truncate(singleLine(r.Cells[j]), cols[j].Width)
			}
		}
		rows[i] = row
	}
	return rows
}

// tableHeight is the number of rows available to the table, header included.
func (m Model) tableHeight() int {
	return maxInt(3, m.height-ChromeHeight)
}

// renderResults renders the results table inside a bordered pane.
func (m Model) renderResults() string {
	styles := m.theme.Styles()
	height := m.tableHeight()

	var content string
	switch {
	case m.results == nil:
		content = lipgloss.Place(maxInt(0, m.width-2), height, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No results yet"))
	case m.results.Len() == 0:
		content = m.table.View() + "\n" + styles.MutedText.Render("No portfolios match")
	default:
		content = m.table.View()
	}

	title := "Portfolios"
	if m.results != nil {
		title = fmt.Sprintf("Portfolios (%d/%d)", m.results.Len(), m.results.Total())
		if value, ok := m.results.ActiveFilter(); ok {
			title += " family=" + value
		}
	}
	return m.renderBox(title, content, m.width, height+2, m.focus == focusTable)
}

// renderBox draws content inside a rounded border with the title set into
// the top edge. Focused boxes use the focus border color.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	if focused {
		borderColor = m.theme.BorderFocus
	}
	border := lipgloss.RoundedBorder()
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))

	inner := maxInt(0, width-2)
	title = truncate(title, maxInt(0, inner-4))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(focused).Render(" " + title + " ")
	fill := maxInt(0, inner-1-runewidth.StringWidth(" "+title+" "))
	top := borderStyle.Render(border.TopLeft+border.Top) + label +
		borderStyle.Render(strings.Repeat(border.Top, fill)+border.TopRight)

	body := lipgloss.NewStyle().
		Border(border, false, true, true, true).
		BorderForeground(lipgloss.Color(borderColor)).
		Width(inner).
		Height(maxInt(0, height-2)).
		MaxHeight(maxInt(0, height-1)).
		Render(content)

	return top + "\n" + body
}
