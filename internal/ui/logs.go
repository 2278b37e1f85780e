package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/portfolio-finder/internal/logtail"
)

// logLinesMsg carries the tail of the application log.
type logLinesMsg struct {
	lines []string
	err   error
}

// loadLogsCmd reads the last LogTailLines lines of the log file.
func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{err: errors.New("no log file configured")}
		}
		lines, err := logtail.Read(path, LogTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

// updateLogViewport sizes the log viewport and refills it, keeping the newest
// lines in view.
func (m *Model) updateLogViewport() {
	width := maxInt(0, m.width-4)
	height := maxInt(1, m.height-4)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	m.logViewport.GotoBottom()
}

// renderLogContent colours each line by its log level.
func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if m.logErr != nil {
		return bg.FillLine(bg.Render("Log unavailable: "+m.logErr.Error(), styles.DangerText), width)
	}
	if len(m.logLines) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	var b strings.Builder
	for i, line := range m.logLines {
		content := bg.Render(fmt.Sprintf("%4d │ ", i+1), styles.FaintText) +
			bg.Render(truncate(line, maxInt(1, width-7)), m.levelStyle(logtail.Level(line), styles))
		b.WriteString(bg.FillLine(content, width))
		if i < len(m.logLines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// levelStyle returns the style for a zerolog console level token.
func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INF":
		return styles.Text
	case "WRN":
		return styles.WarningText
	case "ERR", "FTL", "PNC":
		return styles.DangerText
	case "DBG", "TRC":
		return styles.MutedText
	default:
		return styles.Text
	}
}

// renderLogs renders the log overlay with a one-line hint below.
func (m Model) renderLogs() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	title := "Application Log"
	if m.logPath != "" {
		title += " " + m.logPath
	}
	box := m.renderBox(title, m.logViewport.View(), m.width, m.height-1, true)

	hint := bg.Render(fmt.Sprintf("%d lines", len(m.logLines)), styles.FaintText) + bg.Spaces(2) +
		bg.Render("r", styles.AccentText) + bg.Render(" reload", styles.MutedText) + bg.Spaces(2) +
		bg.Render("esc", styles.AccentText) + bg.Render(" close", styles.MutedText)
	return box + "\n" + styles.Footer.Width(m.width).Render(hint)
}

// handleLogsKey scrolls, reloads or closes the log overlay.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Logs):
		m.showLogs = false
		return m, nil
	case key.Matches(msg, m.keys.Rerun):
		return m, loadLogsCmd(m.logPath)
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}
