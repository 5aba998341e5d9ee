package query

import (
	"math"
	"testing"

	"github.com/vegasq/screener/table"
)

// stockRow is a test row: an identifier and the metrics that are set.
// Every other output column is left missing.
type stockRow struct {
	Ticker  string
	Metrics map[string]float64
}

// buildStockTable creates a table with every DefaultColumns metric
func buildStockTable(t *testing.T, rows ...stockRow) *table.Table {
	t.Helper()
	return buildTable(t, DefaultColumns[1:], rows...)
}

// buildTable creates a table with the given metric columns
func buildTable(t *testing.T, columns []string, rows ...stockRow) *table.Table {
	t.Helper()

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	b := table.NewBuilder("Ticker", columns)
	for _, r := range rows {
		values := make([]float64, len(columns))
		for i := range values {
			values[i] = math.NaN()
		}
		for name, v := range r.Metrics {
			i, ok := index[name]
			if !ok {
				t.Fatalf("test row %s uses unknown column %q", r.Ticker, name)
			}
			values[i] = v
		}
		if err := b.Add(r.Ticker, values); err != nil {
			t.Fatalf("failed to add row: %v", err)
		}
	}

	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return tbl
}

// tickers returns the identifiers of the result records
func tickers(res *Result) []string {
	out := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		out = append(out, r.Key())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
