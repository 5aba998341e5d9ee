package query

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vegasq/screener/table"
)

// View is a subset of a table's rows. Narrowing a view never modifies the
// table or the view it came from.
type View struct {
	table *table.Table
	rows  *roaring.Bitmap
}

// NewView returns a view over every row of t.
func NewView(t *table.Table) *View {
	rows := roaring.New()
	rows.AddRange(0, uint64(t.Len()))
	return &View{table: t, rows: rows}
}

// EmptyView returns a view over no rows of t.
func EmptyView(t *table.Table) *View {
	return &View{table: t, rows: roaring.New()}
}

// Table returns the underlying table.
func (v *View) Table() *table.Table {
	return v.table
}

// Len returns the number of rows in the view.
func (v *View) Len() int {
	return int(v.rows.GetCardinality())
}

// Contains reports whether the row with the given identifier is in the view.
func (v *View) Contains(key string) bool {
	i, ok := v.table.Row(key)
	return ok && v.rows.Contains(uint32(i))
}

// Keys returns the identifiers of the rows in table order.
func (v *View) Keys() []string {
	keys := make([]string, 0, v.Len())
	it := v.rows.Iterator()
	for it.HasNext() {
		keys = append(keys, v.table.Key(int(it.Next())))
	}
	return keys
}

// Narrow returns the rows present in both v and selected.
func (v *View) Narrow(selected *roaring.Bitmap) *View {
	return &View{table: v.table, rows: roaring.And(v.rows, selected)}
}

// Apply evaluates c against the rows of v and returns the narrowed view.
// Every metric c reads must be a column of the table.
func (v *View) Apply(c Condition) (*View, error) {
	for _, m := range c.Metrics() {
		if _, ok := v.table.ColumnIndex(m); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}
	selected, err := c.Select(v.table, v.rows)
	if err != nil {
		return nil, err
	}
	return v.Narrow(selected), nil
}
