package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultColumns is the output column order of a screening result: the
// identifier followed by the metrics clients expect, in this order.
var DefaultColumns = []string{
	"Ticker", "Market Capitalization", "Total Debt", "Total Revenue",
	"Free Cashflow 3years %", "Free Cashflow 4years %", "Free Cashflow",
	"Operating Cashflow 3years %", "Operating Cashflow 4years %", "Operating Cashflow",
	"Investing Cashflow 3years %", "Investing Cashflow 4years %", "Investing Cashflow",
	"Financing Cashflow 3years %", "Financing Cashflow 4years %", "Financing Cashflow",
	"P/E Ratio", "Forward P/E Ratio", "P/B Ratio", "Debt-to-Equity Ratio",
	"Current Ratio", "Quick Ratio", "ROE", "ROA", "Profit Margin",
	"Operating Margin", "Gross Margin",
}

// MissingPlaceholder stands in for missing values in serialized records.
const MissingPlaceholder = "N/A"

// ProjectionError is returned when the table lacks output columns.
type ProjectionError struct {
	Missing []string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("table is missing output columns: %s", strings.Join(e.Missing, ", "))
}

// Value is one cell of a projected record.
type Value struct {
	Text    string // identifier column only
	Number  float64
	IsText  bool
	Missing bool
}

// Interface returns the cell as a string, a float64, or nil when missing or
// non-finite.
func (v Value) Interface() interface{} {
	switch {
	case v.Missing:
		return nil
	case v.IsText:
		return v.Text
	case math.IsNaN(v.Number) || math.IsInf(v.Number, 0):
		return nil
	default:
		return v.Number
	}
}

// String formats the cell, using MissingPlaceholder for missing and
// non-finite values.
func (v Value) String() string {
	switch {
	case v.Missing:
		return MissingPlaceholder
	case v.IsText:
		return v.Text
	case math.IsNaN(v.Number) || math.IsInf(v.Number, 0):
		return MissingPlaceholder
	default:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
}

// Record is one result row in output column order.
type Record struct {
	Columns []string
	Values  []Value
	key     string
}

// NewRecord builds a record for the row identified by key.
func NewRecord(key string, columns []string, values []Value) Record {
	return Record{Columns: columns, Values: values, key: key}
}

// Key returns the identifier of the row the record was projected from.
func (r Record) Key() string {
	return r.key
}

// Get returns the named cell.
func (r Record) Get(column string) (Value, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return Value{}, false
}

// MarshalJSON writes the record as an object with keys in column order.
// Missing and non-finite values are written as MissingPlaceholder.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val := r.Values[i].Interface()
		if val == nil {
			val = MissingPlaceholder
		}
		enc, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Project renders the rows of v in the given column order. Every column must
// be the identifier or a metric of the table.
func Project(v *View, columns []string) ([]Record, error) {
	t := v.Table()

	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &ProjectionError{Missing: missing}
	}

	records := make([]Record, 0, v.Len())
	it := v.rows.Iterator()
	for it.HasNext() {
		row := int(it.Next())
		values := make([]Value, len(columns))
		for i, c := range columns {
			if c == t.Identifier() {
				values[i] = Value{Text: t.Key(row), IsText: true}
				continue
			}
			n, ok := t.Lookup(row, c)
			values[i] = Value{Number: n, Missing: !ok}
		}
		records = append(records, Record{Columns: columns, Values: values, key: t.Key(row)})
	}
	return records, nil
}
