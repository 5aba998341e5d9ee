package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/vegasq/screener/table"
)

// missingTokens are cell values read as missing rather than unparseable.
var missingTokens = map[string]struct{}{
	"": {}, "-": {}, "NaN": {}, "nan": {}, "NA": {}, "N/A": {}, "n/a": {},
	"#N/A": {}, "null": {}, "NULL": {}, "None": {},
}

// parseCell converts a cell to a float64, NaN when missing or non-numeric.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if _, ok := missingTokens[s]; ok {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// decodeCSV reads a CSV file with a header row.
func decodeCSV(r io.Reader, compressed bool, identifier string) (*frame, error) {
	if compressed {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", table.ErrNoIdentifier)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idCol := -1
	columns := make([]string, 0, len(header))
	metricIdx := make([]int, 0, len(header))
	for i, name := range header {
		if name == identifier {
			idCol = i
			continue
		}
		columns = append(columns, name)
		metricIdx = append(metricIdx, i)
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%w: no %q column in header", table.ErrNoIdentifier, identifier)
	}

	f := &frame{columns: columns}
	for {
		record, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := make([]float64, len(metricIdx))
		for j, i := range metricIdx {
			row[j] = parseCell(record[i])
		}
		f.keys = append(f.keys, strings.TrimSpace(record[idCol]))
		f.rows = append(f.rows, row)
	}
	return f, nil
}
