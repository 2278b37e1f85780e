package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/portfolio-finder/internal/finder"
	"github.com/five82/portfolio-finder/internal/pam"
	"github.com/five82/portfolio-finder/internal/portfolio"
	"github.com/five82/portfolio-finder/internal/prefs"
	"github.com/five82/portfolio-finder/internal/state"
	"github.com/five82/portfolio-finder/internal/task"
)

// Finder runs searches on behalf of the UI.
type Finder interface {
	Submit(ctx context.Context, criteria pam.Criteria) (<-chan task.Result[finder.Outcome], error)
	Busy() bool
	Snapshot() state.Snapshot
}

var _ Finder = (*finder.Controller)(nil)

// focusArea identifies the widget receiving keys.
type focusArea int

const (
	focusType focusArea = iota
	focusQuery
	focusTable
	focusCount
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Finder    Finder
	Logger    zerolog.Logger
	LogPath   string
	ThemeName string
	MaxCount  int
	PrefsPath string

	// Clipboard writes copied cells; nil uses the system clipboard.
	Clipboard func(string) error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	finder    Finder
	logger    zerolog.Logger
	logPath   string
	prefsPath string
	clipboard func(string) error

	// UI state
	theme  Theme
	keys   keyMap
	help   help.Model
	width  int
	height int
	ready  bool
	focus  focusArea

	// Search state
	category     pam.Category
	query        textinput.Model
	maxCount     int
	searching    bool
	spinner      spinner.Model
	lastCriteria pam.Criteria
	hasSearched  bool

	// Results state
	results   *portfolio.Model
	table     table.Model
	colCursor int

	// Status bar
	status    string
	statusErr bool

	// Overlays
	modal       Modal
	showHelp    bool
	showLogs    bool
	logViewport viewport.Model
	logLines    []string
	logErr      error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	maxCount := opts.MaxCount
	if maxCount <= 0 {
		maxCount = prefs.DefaultMaxCount
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	theme := GetTheme(opts.ThemeName)

	query := textinput.New()
	query.Placeholder = "name or code"
	query.Prompt = ""
	query.CharLimit = 256
	query.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		finder:    opts.Finder,
		logger:    opts.Logger,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		clipboard: copyFn,
		theme:     theme,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		focus:     focusQuery,
		category:  pam.CategoryMyPortfolios,
		query:     query,
		maxCount:  maxCount,
		spinner:   sp,
		table:     newResultsTable(theme),
		status:    "Initializing...",
	}
	m.applyTheme()
	return m
}

// Messages

// startSearchMsg asks Update to submit the current criteria.
type startSearchMsg struct{}

// searchResultMsg delivers the outcome of a submitted search.
type searchResultMsg task.Result[finder.Outcome]

// copiedMsg reports the result of a clipboard write.
type copiedMsg struct {
	text string
	err  error
}

// Init implements tea.Model. The first search runs as soon as the program starts.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return startSearchMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case startSearchMsg:
		return m.submit(m.criteria())

	case searchResultMsg:
		return m.handleResult(task.Result[finder.Outcome](msg))

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case settingsSavedMsg:
		m.maxCount = msg.MaxCount
		m.logger.Info().Int("max_count", m.maxCount).Msg("settings saved")
		m.savePrefs()
		return m, nil

	case filterChosenMsg:
		if m.results == nil || msg.source != m.results {
			return m, nil
		}
		if msg.Clear {
			m.results.ClearFilter()
		} else {
			m.results.Filter(msg.Value)
		}
		m.refreshTable(false)
		m.setStatus(m.results.StatusMessage())
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("clipboard write failed")
			m.setError("Copy failed: " + msg.err.Error())
			return m, nil
		}
		m.setStatus("Copied to clipboard: " + truncate(singleLine(msg.text), 40))
		return m, nil

	case logLinesMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.updateLogViewport()
		return m, nil
	}

	if m.modal != nil {
		next, cmd, _ := m.modal.Update(msg, m.keys)
		m.modal = next
		return m, cmd
	}

	if m.focus == focusQuery && !m.searching {
		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	if m.showLogs {
		return m.renderLogs()
	}

	return m.renderMain()
}

// handleKey routes keyboard input to the active overlay or widget.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	if m.showLogs {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Tab):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	}

	if m.focus == focusQuery {
		return m.handleQueryKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.modal = newSettingsModal(m.maxCount)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
		return m, loadLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.Rerun):
		if !m.hasSearched {
			return m.submit(m.criteria())
		}
		return m.submit(m.lastCriteria)
	}

	switch m.focus {
	case focusType:
		return m.handleTypeKey(msg)
	case focusTable:
		return m.handleTableKey(msg)
	}
	return m, nil
}

// handleQueryKey lets the text input consume everything except Enter and Esc.
func (m Model) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit(m.criteria())
	case key.Matches(msg, m.keys.Escape):
		m.setFocus(focusTable)
		return m, nil
	}

	if m.searching {
		return m, nil
	}
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

// handleTypeKey cycles the portfolio type selector.
func (m Model) handleTypeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		return m.submit(m.criteria())
	}
	if m.searching {
		return m, nil
	}

	categories := pam.Categories()
	idx := 0
	for i, c := range categories {
		if c == m.category {
			idx = i
			break
		}
	}
	switch {
	case key.Matches(msg, m.keys.Left):
		m.category = categories[(idx+len(categories)-1)%len(categories)]
	case key.Matches(msg, m.keys.Right):
		m.category = categories[(idx+1)%len(categories)]
	case key.Matches(msg, m.keys.Escape):
		m.setFocus(focusTable)
	}
	return m, nil
}

// setFocus moves keyboard focus, keeping the text input and table in step.
func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusQuery {
		m.query.Focus()
	} else {
		m.query.Blur()
	}
	if f == focusTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

// criteria reads the search inputs.
func (m Model) criteria() pam.Criteria {
	return pam.Criteria{
		Category: m.category,
		Query:    strings.TrimSpace(m.query.Value()),
		MaxCount: m.maxCount,
	}
}

// submit hands criteria to the finder. Requests made while a search is
// outstanding are dropped.
func (m Model) submit(c pam.Criteria) (tea.Model, tea.Cmd) {
	if m.finder == nil || m.searching {
		return m, nil
	}

	connected := m.finder.Snapshot().Phase == state.Connected
	ch, err := m.finder.Submit(m.ctx, c)
	if errors.Is(err, task.ErrBusy) {
		return m, nil
	}
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}

	m.searching = true
	m.lastCriteria = c
	m.hasSearched = true
	if connected {
		m.setStatus("Submitted request...")
	} else {
		m.setStatus("Connecting...")
	}
	m.logger.Debug().
		Str("category", c.Category.Label()).
		Str("query", c.Query).
		Int("max_count", c.MaxCount).
		Msg("search submitted")

	return m, tea.Batch(waitForResult(ch), m.spinner.Tick)
}

// handleResult installs a new result set, or reports the failure and keeps
// the previous results on screen.
func (m Model) handleResult(res task.Result[finder.Outcome]) (tea.Model, tea.Cmd) {
	m.searching = false
	if res.Err != nil {
		m.logger.Warn().Err(res.Err).Msg("search failed")
		m.setError(res.Err.Error())
		return m, nil
	}

	if _, ok := m.modal.(*filterModal); ok {
		m.modal = nil
	}
	logger := m.logger
	m.results = portfolio.NewModel(res.Value.Headers, portfolio.WithListener(func(status string) {
		logger.Debug().Str("status", status).Msg("results view changed")
	}))
	m.colCursor = 0
	m.refreshTable(true)
	m.setStatus(m.results.StatusMessage())
	return m, nil
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// applyTheme restyles the widgets that cache theme colors.
func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.spinner.Style = styles.WithBackground(m.theme.Surface).AccentText
	m.query.TextStyle = styles.Text
	m.query.PlaceholderStyle = styles.FaintText
	m.query.Cursor.Style = styles.AccentText
	m.table.SetStyles(tableStyles(m.theme))
}

// savePrefs persists the theme and maximum count.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, MaxCount: m.maxCount}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn().Err(err).Str("path", m.prefsPath).Msg("save preferences")
	}
}

// resize fits every widget to the terminal size.
func (m *Model) resize() {
	m.query.Width = maxInt(10, m.width-inputBarChrome(m.width))
	m.table.SetWidth(maxInt(0, m.width-2))
	m.table.SetHeight(m.tableHeight())
	m.updateLogViewport()
}

// renderMain renders the input bar, results, status bar and footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderInputBar())
	b.WriteString("\n")
	b.WriteString(m.renderResults())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// Commands

func waitForResult(ch <-chan task.Result[finder.Outcome]) tea.Cmd {
	return func() tea.Msg {
		return searchResultMsg(<-ch)
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{text: text, err: write(text)}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if err != nil && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
