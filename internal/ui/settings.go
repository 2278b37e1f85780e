package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/portfolio-finder/internal/prefs"
)

// Bounds of the maximum count setting.
const (
	MinMaxCount = 1
	MaxMaxCount = 999999
)

// settingsSavedMsg carries a validated maximum count out of the settings modal.
type settingsSavedMsg struct {
	MaxCount int
}

// settingsModal edits the maximum number of portfolios requested per search.
type settingsModal struct {
	input textinput.Model
	err   string
}

func newSettingsModal(current int) *settingsModal {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(prefs.DefaultMaxCount)
	ti.CharLimit = len(strconv.Itoa(MaxMaxCount))
	ti.Width = 12
	ti.SetValue(strconv.Itoa(current))
	ti.CursorEnd()
	ti.Focus()
	return &settingsModal{input: ti}
}

// parseMaxCount validates the text of the maximum count field.
func parseMaxCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.New("Invalid number")
	}
	if n < MinMaxCount {
		return 0, errors.New("Max Count must be greater than 0")
	}
	if n > MaxMaxCount {
		return 0, fmt.Errorf("Max Count must not exceed %d", MaxMaxCount)
	}
	return n, nil
}

func (s *settingsModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd, false
	}

	switch {
	case key.Matches(keyMsg, keys.Escape):
		return s, nil, true

	case key.Matches(keyMsg, keys.Confirm):
		n, err := parseMaxCount(s.input.Value())
		if err != nil {
			s.err = err.Error()
			return s, nil, false
		}
		return s, func() tea.Msg { return settingsSavedMsg{MaxCount: n} }, true
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(keyMsg)
	s.err = ""
	return s, cmd, false
}

func (s *settingsModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Settings"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Render("Maximum Count: "))
	b.WriteString(s.input.View())
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("Between %d and %d", MinMaxCount, MaxMaxCount)))
	b.WriteString("\n\n")

	if s.err != "" {
		b.WriteString(styles.DangerText.Render(s.err))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.FaintText.Render("Enter: Save  •  Esc: Cancel"))
	return renderModalBox(theme, b.String(), 40, width, height)
}
