package portfolio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Synthetic column keys.
const (
	KeyRowNumber = "#"
	KeyFamily    = "family"
)

// Column is one displayed column.
type Column struct {
	Key   string
	Label string
}

// Schema is the column layout resolved once per result set.
type Schema struct {
	Columns   []Column
	HasFamily bool
}

// Index returns the position of key in the schema, or -1.
func (s Schema) Index(key string) int {
	for i, c := range s.Columns {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// Labels returns the column labels in display order.
func (s Schema) Labels() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Label
	}
	return out
}

// DeriveSchema resolves the display columns from the first header's keys.
// Nested objects are skipped, extendedProperties becomes a standalone family
// column right after the row number, and accessibility is dropped.
func DeriveSchema(headers []Header) Schema {
	schema := Schema{Columns: []Column{{Key: KeyRowNumber, Label: KeyRowNumber}}}
	if len(headers) == 0 {
		return schema
	}

	for _, h := range headers {
		if h.Has(KeyExtendedProperties) {
			schema.HasFamily = true
			break
		}
	}
	if schema.HasFamily {
		schema.Columns = append(schema.Columns, Column{Key: KeyFamily, Label: KeyFamily})
	}

	first := headers[0]
	for _, key := range first.Keys() {
		switch {
		case key == KeyExtendedProperties, key == KeyAccessibility:
			continue
		case key == KeyFamily && schema.HasFamily:
			continue
		case first.IsObject(key):
			continue
		}
		schema.Columns = append(schema.Columns, Column{Key: key, Label: label(key)})
	}
	return schema
}

// Row is one displayed record. Number is the 1-based position in the
// original result set and stays with the row through sorting and filtering.
type Row struct {
	Number int
	Family string
	Cells  []string
}

// SortOrder selects the direction of the active sort.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Listener receives the status message after every display-affecting change.
type Listener func(status string)

// Option configures a Model.
type Option func(*Model)

// WithListener registers fn to receive status messages.
func WithListener(fn Listener) Option {
	return func(m *Model) {
		m.listener = fn
	}
}

// Model adapts a result set to a row/column display with one optional
// family filter and one optional sort column. The full result set is never
// mutated; the view is re-derived from it on every change.
type Model struct {
	schema Schema
	master []Row
	view   []Row

	filter    string
	filtering bool

	sortCol   int
	sortOrder SortOrder
	sorting   bool

	listener Listener
}

// NewModel builds the display model for headers and announces the total.
func NewModel(headers []Header, opts ...Option) *Model {
	m := &Model{schema: DeriveSchema(headers), sortCol: -1}
	for _, opt := range opts {
		opt(m)
	}

	m.master = make([]Row, len(headers))
	for i, h := range headers {
		m.master[i] = m.buildRow(i+1, h)
	}
	m.rebuild()
	m.notify()
	return m
}

func (m *Model) buildRow(number int, h Header) Row {
	row := Row{Number: number, Family: h.Family(), Cells: make([]string, len(m.schema.Columns))}
	for i, col := range m.schema.Columns {
		switch col.Key {
		case KeyRowNumber:
			row.Cells[i] = strconv.Itoa(number)
		case KeyFamily:
			if m.schema.HasFamily {
				row.Cells[i] = row.Family
				continue
			}
			row.Cells[i] = h.Value(col.Key)
		default:
			row.Cells[i] = h.Value(col.Key)
		}
	}
	return row
}

// Schema returns the resolved column layout.
func (m *Model) Schema() Schema {
	return m.schema
}

// Rows returns the currently displayed rows.
func (m *Model) Rows() []Row {
	return append([]Row(nil), m.view...)
}

// Len returns the number of displayed rows.
func (m *Model) Len() int {
	return len(m.view)
}

// Total returns the size of the unfiltered result set.
func (m *Model) Total() int {
	return len(m.master)
}

// Cell returns the display text at (row, col) of the current view.
func (m *Model) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(m.view) {
		return "", false
	}
	cells := m.view[row].Cells
	if col < 0 || col >= len(cells) {
		return "", false
	}
	return cells[col], true
}

// Sort orders the view by column col. The sort stays active across filter changes.
func (m *Model) Sort(col int, order SortOrder) error {
	if col < 0 || col >= len(m.schema.Columns) {
		return fmt.Errorf("sort column %d out of range", col)
	}
	m.sortCol = col
	m.sortOrder = order
	m.sorting = true
	m.applySort()
	return nil
}

// SortState returns the active sort column and order; ok is false when unsorted.
func (m *Model) SortState() (col int, order SortOrder, ok bool) {
	return m.sortCol, m.sortOrder, m.sorting
}

// Families returns the distinct family values in first-seen order.
func (m *Model) Families() []string {
	if !m.schema.HasFamily {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.master {
		if seen[r.Family] {
			continue
		}
		seen[r.Family] = true
		out = append(out, r.Family)
	}
	return out
}

// Filterable reports whether the family filter offers a real choice.
func (m *Model) Filterable() bool {
	return len(m.Families()) > 1
}

// Filter narrows the view to rows whose family equals value exactly.
func (m *Model) Filter(value string) {
	m.filter = value
	m.filtering = true
	m.rebuild()
	m.notify()
}

// ClearFilter restores the full result set.
func (m *Model) ClearFilter() {
	m.filter = ""
	m.filtering = false
	m.rebuild()
	m.notify()
}

// ActiveFilter returns the current family filter; ok is false when none is set.
func (m *Model) ActiveFilter() (value string, ok bool) {
	return m.filter, m.filtering
}

// StatusMessage describes the current view.
func (m *Model) StatusMessage() string {
	msg := fmt.Sprintf("Found a total of %d portfolios", len(m.view))
	if m.filtering {
		msg = fmt.Sprintf("%s based on the filter: %s", msg, m.filter)
	}
	return msg
}

func (m *Model) rebuild() {
	view := make([]Row, 0, len(m.master))
	for _, r := range m.master {
		if m.filtering && r.Family != m.filter {
			continue
		}
		view = append(view, r)
	}
	m.view = view
	if m.sorting {
		m.applySort()
	}
}

func (m *Model) applySort() {
	col, desc := m.sortCol, m.sortOrder == Descending
	sort.SliceStable(m.view, func(i, j int) bool {
		c := compareCells(m.view[i].Cells[col], m.view[j].Cells[col])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func (m *Model) notify() {
	if m.listener != nil {
		m.listener(m.StatusMessage())
	}
}

// compareCells orders empty cells first, then numeric cells by value, then
// everything else lexically.
func compareCells(a, b string) int {
	ka, da := classify(a)
	kb, db := classify(b)
	if ka != kb {
		return ka - kb
	}
	if ka == cellNumeric {
		return da.Cmp(db)
	}
	return strings.Compare(a, b)
}

const (
	cellEmpty = iota
	cellNumeric
	cellText
)

func classify(s string) (int, decimal.Decimal) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return cellEmpty, decimal.Decimal{}
	}
	if d, err := decimal.NewFromString(trimmed); err == nil {
		return cellNumeric, d
	}
	return cellText, decimal.Decimal{}
}
