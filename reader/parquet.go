package reader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/screener/table"
)

// decodeParquet reads every row of a parquet file into memory.
//
// Top-level fields become columns in schema order. Numeric values of any
// width become float64; strings are parsed like CSV cells; anything else is
// missing.
func decodeParquet(r io.ReaderAt, size int64, identifier string) (*frame, error) {
	pqFile, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	var columns []string
	hasID := false
	for _, field := range pqFile.Schema().Fields() {
		if field.Name() == identifier {
			hasID = true
			continue
		}
		columns = append(columns, field.Name())
	}
	if !hasID {
		return nil, fmt.Errorf("%w: no %q column in schema", table.ErrNoIdentifier, identifier)
	}

	reader := parquet.NewReader(pqFile)
	defer func() { _ = reader.Close() }()

	f := &frame{columns: columns}
	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			// Use errors.Is for proper EOF detection
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		values := make([]float64, len(columns))
		for i, c := range columns {
			values[i] = toFloat64(row[c])
		}
		f.keys = append(f.keys, toKey(row[identifier]))
		f.rows = append(f.rows, values)
	}
	return f, nil
}

// toKey renders an identifier value as a string
func toKey(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	default:
		return fmt.Sprint(val)
	}
}

// toFloat64 converts a value to float64, NaN if not numeric
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case string:
		return parseCell(val)
	case []byte:
		return parseCell(string(val))
	default:
		return math.NaN()
	}
}
