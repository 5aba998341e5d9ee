// Package table holds the in-memory dataset the screener filters.
//
// A Table has one row per security, keyed by a unique identifier (the ticker),
// and one float64 column per financial metric. Missing or non-numeric cells are
// stored as NaN and reported as absent by Value. Tables are immutable once
// built and safe for concurrent readers.
//
// Example usage:
//
//	b := table.NewBuilder("Ticker", []string{"P/E Ratio", "ROE"})
//	if err := b.Add("AAPL", []float64{28.1, 1.47}); err != nil {
//	    log.Fatal(err)
//	}
//	t, err := b.Build()
package table

import (
	"errors"
	"fmt"
	"math"
)

// DefaultIdentifier is the identifier column used when none is configured.
const DefaultIdentifier = "Ticker"

var (
	// ErrNoIdentifier is returned when the identifier column is missing or empty.
	ErrNoIdentifier = errors.New("identifier column missing")

	// ErrDuplicateKey is returned when two rows share an identifier.
	ErrDuplicateKey = errors.New("duplicate identifier")

	// ErrDuplicateColumn is returned when a metric column is declared twice.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrRowWidth is returned when a row does not have one value per column.
	ErrRowWidth = errors.New("row width does not match columns")
)

// Table is an ordered, read-only set of rows keyed by identifier.
type Table struct {
	identifier string
	columns    []string
	colIndex   map[string]int
	keys       []string
	rowIndex   map[string]int
	values     [][]float64
}

// Identifier returns the name of the identifier column.
func (t *Table) Identifier() string {
	return t.identifier
}

// Columns returns the metric column names in declared order, excluding the identifier.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether name is the identifier or a metric column.
func (t *Table) HasColumn(name string) bool {
	if name == t.identifier {
		return true
	}
	_, ok := t.colIndex[name]
	return ok
}

// ColumnIndex returns the position of a metric column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.colIndex[name]
	return i, ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.keys)
}

// Key returns the identifier of row i.
func (t *Table) Key(i int) string {
	return t.keys[i]
}

// Row returns the position of the row with the given identifier.
func (t *Table) Row(key string) (int, bool) {
	i, ok := t.rowIndex[key]
	return i, ok
}

// Value returns the metric value at row i, column col.
// The second result is false when the cell is missing.
func (t *Table) Value(i, col int) (float64, bool) {
	v := t.values[i][col]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Lookup returns the named metric for row i.
func (t *Table) Lookup(i int, column string) (float64, bool) {
	col, ok := t.colIndex[column]
	if !ok {
		return 0, false
	}
	return t.Value(i, col)
}

// Builder accumulates rows and validates the Table invariants.
type Builder struct {
	identifier string
	columns    []string
	colIndex   map[string]int
	keys       []string
	rowIndex   map[string]int
	values     [][]float64
	err        error
}

// NewBuilder starts a Table with the given identifier and metric columns.
// A metric column with the identifier's name is dropped.
func NewBuilder(identifier string, columns []string) *Builder {
	b := &Builder{
		identifier: identifier,
		colIndex:   make(map[string]int, len(columns)),
		rowIndex:   make(map[string]int),
	}
	if identifier == "" {
		b.err = ErrNoIdentifier
		return b
	}
	for _, c := range columns {
		if c == identifier {
			continue
		}
		if _, dup := b.colIndex[c]; dup {
			b.err = fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
			return b
		}
		b.colIndex[c] = len(b.columns)
		b.columns = append(b.columns, c)
	}
	return b
}

// Add appends a row. Use math.NaN() for missing values.
func (b *Builder) Add(key string, values []float64) error {
	if b.err != nil {
		return b.err
	}
	if key == "" {
		return fmt.Errorf("%w: empty value in row %d", ErrNoIdentifier, len(b.keys)+1)
	}
	if _, dup := b.rowIndex[key]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	if len(values) != len(b.columns) {
		return fmt.Errorf("%w: row %q has %d values, want %d", ErrRowWidth, key, len(values), len(b.columns))
	}

	row := make([]float64, len(values))
	copy(row, values)
	b.rowIndex[key] = len(b.keys)
	b.keys = append(b.keys, key)
	b.values = append(b.values, row)
	return nil
}

// Build returns the finished Table. The Builder must not be reused.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Table{
		identifier: b.identifier,
		columns:    b.columns,
		colIndex:   b.colIndex,
		keys:       b.keys,
		rowIndex:   b.rowIndex,
		values:     b.values,
	}, nil
}
