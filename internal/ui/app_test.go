package ui

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/five82/portfolio-finder/internal/finder"
	"github.com/five82/portfolio-finder/internal/pam"
	"github.com/five82/portfolio-finder/internal/portfolio"
	"github.com/five82/portfolio-finder/internal/prefs"
	"github.com/five82/portfolio-finder/internal/state"
	"github.com/five82/portfolio-finder/internal/task"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

func containsPlain(rendered, want string) bool {
	return strings.Contains(ansiRe.ReplaceAllString(rendered, ""), want)
}

type fakeFinder struct {
	phase     state.Phase
	failures  int
	failedAt  time.Time
	submitted []pam.Criteria
	pending   chan task.Result[finder.Outcome]
	err       error
}

func (f *fakeFinder) Submit(_ context.Context, c pam.Criteria) (<-chan task.Result[finder.Outcome], error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = append(f.submitted, c)
	f.pending = make(chan task.Result[finder.Outcome], 1)
	return f.pending, nil
}

func (f *fakeFinder) Busy() bool { return f.pending != nil }

func (f *fakeFinder) Snapshot() state.Snapshot {
	return state.Snapshot{Phase: f.phase, ConsecutiveFailures: f.failures, LastFailure: f.failedAt}
}

const uiPayload = `[
	{"id": "a", "name": "Alpha", "numberOfConstituents": 10, "extendedProperties": {"family": "Equity"}},
	{"id": "b", "name": "Charlie", "numberOfConstituents": 2, "extendedProperties": {"family": "Bond"}},
	{"id": "c", "name": "Bravo", "numberOfConstituents": 100, "extendedProperties": {"family": "Equity"}}
]`

func sampleHeaders(t *testing.T) []portfolio.Header {
	t.Helper()
	var headers []portfolio.Header
	require.NoError(t, json.Unmarshal([]byte(uiPayload), &headers))
	return headers
}

func newTestModel(t *testing.T, f *fakeFinder) Model {
	t.Helper()
	m := New(Options{
		Finder:    f,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Clipboard: func(string) error { return nil },
	})
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// loadResults runs the initial search and delivers headers as its result.
func loadResults(t *testing.T, m Model, f *fakeFinder) Model {
	t.Helper()
	m = update(t, m, startSearchMsg{})
	require.True(t, m.searching)
	m = update(t, m, searchResultMsg{Value: finder.Outcome{Headers: sampleHeaders(t), Connected: true}})
	f.pending = nil
	f.phase = state.Connected
	return m
}

func focusTableArea(t *testing.T, m Model) Model {
	t.Helper()
	m = update(t, m, keyType(tea.KeyEsc))
	require.Equal(t, focusTable, m.focus)
	return m
}

func TestNewModelDefaults(t *testing.T) {
	m := New(Options{})
	require.Equal(t, "Initializing...", m.status)
	require.Equal(t, prefs.DefaultMaxCount, m.maxCount)
	require.Equal(t, pam.CategoryMyPortfolios, m.category)
	require.Equal(t, focusQuery, m.focus)
	require.Equal(t, "Initializing...", m.View())
}

func TestInitialSearchUsesDefaultCriteria(t *testing.T) {
	f := &fakeFinder{}
	m := newTestModel(t, f)

	m, cmd := updateCmd(t, m, startSearchMsg{})
	require.NotNil(t, cmd)
	require.Len(t, f.submitted, 1)
	require.Equal(t, pam.Criteria{Category: pam.CategoryMyPortfolios, MaxCount: prefs.DefaultMaxCount}, f.submitted[0])
	require.Equal(t, "Connecting...", m.status)
	require.True(t, m.searching)
}

func TestSubmitWhenConnectedReportsSubmitted(t *testing.T) {
	f := &fakeFinder{phase: state.Connected}
	m := newTestModel(t, f)
	m = update(t, m, keyRunes("abc"))
	m = update(t, m, keyType(tea.KeyEnter))

	require.Len(t, f.submitted, 1)
	require.Equal(t, "abc", f.submitted[0].Query)
	require.Equal(t, "Submitted request...", m.status)
}

func TestSubmitIgnoredWhileSearching(t *testing.T) {
	f := &fakeFinder{}
	m := newTestModel(t, f)
	m = update(t, m, startSearchMsg{})
	m = update(t, m, keyRunes("x"))
	m = update(t, m, keyType(tea.KeyEnter))

	require.Len(t, f.submitted, 1)
	require.Equal(t, "", m.query.Value(), "input is disabled while searching")
}

func TestSubmitErrorIsShownAsError(t *testing.T) {
	f := &fakeFinder{err: errors.New("boom")}
	m := newTestModel(t, f)
	m = update(t, m, startSearchMsg{})
	require.False(t, m.searching)
	require.True(t, m.statusErr)
	require.Equal(t, "boom", m.status)
}

func TestSearchResultPopulatesTable(t *testing.T) {
	f := &fakeFinder{}
	m := loadResults(t, newTestModel(t, f), f)

	require.False(t, m.searching)
	require.False(t, m.statusErr)
	require.Equal(t, "Found a total of 3 portfolios", m.status)
	require.Len(t, m.table.Rows(), 3)
	require.Equal(t, "1", m.table.Rows()[0][0])
	require.True(t, containsPlain(m.View(), "Found a total of 3 portfolios"))
}

func TestStatusBarShowsFailureStreak(t *testing.T) {
	f := &fakeFinder{phase: state.Connected}
	m := newTestModel(t, f)
	require.False(t, containsPlain(m.renderStatusBar(), "failed"))

	f.failures = 2
	f.failedAt = time.Date(2024, 5, 1, 9, 30, 15, 0, time.Local)
	bar := m.renderStatusBar()
	require.True(t, containsPlain(bar, "connected"))
	require.True(t, containsPlain(bar, "2 failed, last 09:30:15"), bar)
}

func TestSearchFailureKeepsPreviousResults(t *testing.T) {
	f := &fakeFinder{}
	m := loadResults(t, newTestModel(t, f), f)

	m = update(t, m, keyType(tea.KeyEnter))
	require.True(t, m.searching)
	m = update(t, m, searchResultMsg{Err: &finder.ConnectError{Err: errors.New("dial tcp: refused")}})

	require.False(t, m.searching)
	require.True(t, m.statusErr)
	require.Equal(t, "Failed to connect. dial tcp: refused", m.status)
	require.Equal(t, 3, m.results.Len())
}

func TestCategoryCyclesWhenFocused(t *testing.T) {
	f := &fakeFinder{}
	m := newTestModel(t, f)
	m = update(t, m, keyType(tea.KeyShiftTab))
	require.Equal(t, focusType, m.focus)

	m = update(t, m, keyType(tea.KeyRight))
	require.Equal(t, pam.CategoryIndices, m.category)
	m = update(t, m, keyRunes("l"))
	require.Equal(t, pam.CategoryPeerMonitor, m.category)
	m = update(t, m, keyType(tea.KeyRight))
	require.Equal(t, pam.CategoryMyPortfolios, m.category)
	m = update(t, m, keyType(tea.KeyLeft))
	require.Equal(t, pam.CategoryPeerMonitor, m.category)

	m = update(t, m, keyType(tea.KeyEnter))
	require.Len(t, f.submitted, 1)
	require.Equal(t, pam.CategoryPeerMonitor, f.submitted[0].Category)
}

func TestSortTogglesOnCursorColumn(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, loadResults(t, newTestModel(t, f), f))

	nameCol := m.results.Schema().Index("name")
	require.Positive(t, nameCol)
	for i := 0; i < nameCol; i++ {
		m = update(t, m, keyType(tea.KeyRight))
	}
	require.Equal(t, nameCol, m.colCursor)

	m = update(t, m, keyRunes("s"))
	col, order, ok := m.results.SortState()
	require.True(t, ok)
	require.Equal(t, nameCol, col)
	require.Equal(t, portfolio.Ascending, order)
	require.Equal(t, "Alpha", m.table.Rows()[0][nameCol])
	require.Equal(t, "Charlie", m.table.Rows()[2][nameCol])

	m = update(t, m, keyRunes("s"))
	_, order, _ = m.results.SortState()
	require.Equal(t, portfolio.Descending, order)
	require.Equal(t, "Charlie", m.table.Rows()[0][nameCol])
}

func TestColumnCursorStaysInBounds(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, loadResults(t, newTestModel(t, f), f))

	m = update(t, m, keyType(tea.KeyLeft))
	require.Equal(t, 0, m.colCursor)

	cols := len(m.results.Schema().Columns)
	for i := 0; i < cols+3; i++ {
		m = update(t, m, keyType(tea.KeyRight))
	}
	require.Equal(t, cols-1, m.colCursor)
}

func TestFilterOpensModalAndApplies(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, loadResults(t, newTestModel(t, f), f))

	m = update(t, m, keyRunes("f"))
	require.IsType(t, &filterModal{}, m.modal)

	// Families are listed in first-seen order after the "all" entry.
	m = update(t, m, keyType(tea.KeyDown))
	m, cmd := updateCmd(t, m, keyType(tea.KeyEnter))
	require.Nil(t, m.modal)
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	require.Equal(t, "Found a total of 2 portfolios based on the filter: Equity", m.status)
	require.Len(t, m.table.Rows(), 2)

	m = update(t, m, keyRunes("F"))
	require.Equal(t, "Found a total of 3 portfolios", m.status)
	require.Len(t, m.table.Rows(), 3)
}

func TestFilterUnavailableForSingleFamily(t *testing.T) {
	f := &fakeFinder{}
	m := newTestModel(t, f)
	m = update(t, m, startSearchMsg{})

	var headers []portfolio.Header
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"a","extendedProperties":{"family":"Equity"}}]`), &headers))
	m = update(t, m, searchResultMsg{Value: finder.Outcome{Headers: headers}})
	m = focusTableArea(t, m)

	m = update(t, m, keyRunes("f"))
	require.Nil(t, m.modal)
}

const otherPayload = `[
	{"id": "x", "name": "Xray", "extendedProperties": {"family": "Cash"}},
	{"id": "y", "name": "Yankee", "extendedProperties": {"family": "Money"}}
]`

func otherHeaders(t *testing.T) []portfolio.Header {
	t.Helper()
	var headers []portfolio.Header
	require.NoError(t, json.Unmarshal([]byte(otherPayload), &headers))
	return headers
}

func TestViewKeysIgnoredWhileSearching(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, loadResults(t, newTestModel(t, f), f))
	m.results.Filter("Equity")
	m.refreshTable(false)

	m = update(t, m, keyRunes("r"))
	require.True(t, m.searching)

	m = update(t, m, keyRunes("f"))
	require.Nil(t, m.modal)

	m = update(t, m, keyRunes("s"))
	_, _, sorted := m.results.SortState()
	require.False(t, sorted)

	m = update(t, m, keyRunes("F"))
	value, filtering := m.results.ActiveFilter()
	require.True(t, filtering)
	require.Equal(t, "Equity", value)
}

func TestNewResultsCloseFilterModal(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, loadResults(t, newTestModel(t, f), f))

	m = update(t, m, keyRunes("f"))
	require.IsType(t, &filterModal{}, m.modal)

	m = update(t, m, startSearchMsg{})
	require.True(t, m.searching)
	m = update(t, m, searchResultMsg{Value: finder.Outcome{Headers: otherHeaders(t)}})
	require.Nil(t, m.modal)
	require.Equal(t, []string{"Cash", "Money"}, m.results.Families())
}

func TestFilterChoiceFromReplacedResultsIsDropped(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, loadResults(t, newTestModel(t, f), f))

	m = update(t, m, keyRunes("f"))
	m = update(t, m, keyType(tea.KeyDown))
	m, chosen := updateCmd(t, m, keyType(tea.KeyEnter))
	require.NotNil(t, chosen)

	m = update(t, m, keyRunes("r"))
	m = update(t, m, searchResultMsg{Value: finder.Outcome{Headers: otherHeaders(t)}})
	f.pending = nil
	require.Equal(t, "Found a total of 2 portfolios", m.status)

	m = update(t, m, chosen())
	require.Equal(t, "Found a total of 2 portfolios", m.status)
	require.Len(t, m.table.Rows(), 2)
	_, filtering := m.results.ActiveFilter()
	require.False(t, filtering)
}

func TestCopyWritesSelectedCell(t *testing.T) {
	f := &fakeFinder{}
	var copied string
	m := New(Options{
		Finder:    f,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Clipboard: func(s string) error { copied = s; return nil },
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = focusTableArea(t, loadResults(t, m, f))

	nameCol := m.results.Schema().Index("name")
	for i := 0; i < nameCol; i++ {
		m = update(t, m, keyType(tea.KeyRight))
	}
	m, cmd := updateCmd(t, m, keyRunes("y"))
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	require.Equal(t, "Alpha", copied)
	require.Equal(t, "Copied to clipboard: Alpha", m.status)
}

func TestCopyFailureIsAnError(t *testing.T) {
	f := &fakeFinder{}
	m := New(Options{
		Finder:    f,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Clipboard: func(string) error { return errors.New("no clipboard") },
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = focusTableArea(t, loadResults(t, m, f))

	_, cmd := updateCmd(t, m, keyRunes("y"))
	m = update(t, m, cmd())
	require.True(t, m.statusErr)
	require.Equal(t, "Copy failed: no clipboard", m.status)
}

func TestSettingsSavedPersistsPreferences(t *testing.T) {
	f := &fakeFinder{}
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := New(Options{Finder: f, PrefsPath: path, ThemeName: "Slate"})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = focusTableArea(t, m)

	m = update(t, m, keyRunes(","))
	require.IsType(t, &settingsModal{}, m.modal)

	m = update(t, m, settingsSavedMsg{MaxCount: 25})
	require.Equal(t, 25, m.maxCount)

	p, err := prefs.Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, p.MaxCount)
	require.Equal(t, "Slate", p.Theme)

	m = update(t, m, startSearchMsg{})
	require.Equal(t, 25, f.submitted[0].MaxCount)
}

func TestSettingsModalInvalidInputKeepsModal(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, newTestModel(t, f))
	m = update(t, m, keyRunes(","))

	s := m.modal.(*settingsModal)
	s.input.SetValue("-1")
	m = update(t, m, keyType(tea.KeyEnter))

	require.NotNil(t, m.modal)
	require.Equal(t, "Max Count must be greater than 0", m.modal.(*settingsModal).err)
	require.True(t, containsPlain(m.View(), "Max Count must be greater than 0"))
}

func TestThemeCycleIsPersisted(t *testing.T) {
	f := &fakeFinder{}
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := New(Options{Finder: f, PrefsPath: path, ThemeName: "Nightfox"})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = focusTableArea(t, m)

	m = update(t, m, keyRunes("T"))
	require.Equal(t, "Kanagawa", m.theme.Name)

	p, err := prefs.Load(path)
	require.NoError(t, err)
	require.Equal(t, "Kanagawa", p.Theme)
}

func TestLetterKeysTypeIntoFocusedQuery(t *testing.T) {
	f := &fakeFinder{}
	m := newTestModel(t, f)
	m = update(t, m, keyRunes("T"))
	m = update(t, m, keyRunes("?"))

	require.Equal(t, "T?", m.query.Value())
	require.False(t, m.showHelp)
	require.Equal(t, "Nightfox", m.theme.Name)
}

func TestHelpOverlayClosesOnAnyKey(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, newTestModel(t, f))

	m = update(t, m, keyRunes("?"))
	require.True(t, m.showHelp)
	require.True(t, containsPlain(m.View(), "Keyboard Shortcuts"))

	m = update(t, m, keyRunes("x"))
	require.False(t, m.showHelp)
}

func TestQuitAlwaysWorks(t *testing.T) {
	f := &fakeFinder{}
	m := focusTableArea(t, newTestModel(t, f))
	m = update(t, m, keyRunes(","))

	_, cmd := updateCmd(t, m, keyType(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRerunRepeatsLastCriteria(t *testing.T) {
	f := &fakeFinder{}
	m := newTestModel(t, f)
	m = update(t, m, keyRunes("ftse"))
	m = update(t, m, keyType(tea.KeyEnter))
	m = update(t, m, searchResultMsg{Value: finder.Outcome{Headers: sampleHeaders(t)}})
	f.pending = nil

	m = focusTableArea(t, m)
	m.query.SetValue("changed")
	m = update(t, m, keyRunes("r"))

	require.Len(t, f.submitted, 2)
	require.Equal(t, "ftse", f.submitted[1].Query)
}

func TestSpinnerStopsWhenIdle(t *testing.T) {
	f := &fakeFinder{}
	m := newTestModel(t, f)

	_, cmd := updateCmd(t, m, m.spinner.Tick())
	require.Nil(t, cmd)
}
