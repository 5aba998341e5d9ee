package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/screener/query"
)

// CSVFormatter outputs records as CSV format
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes a header row followed by one row per record. The header is
// written even when there are no records.
func (c *CSVFormatter) Format(columns []string, records []query.Record) error {
	csvWriter := csv.NewWriter(c.writer)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = sanitize(col)
	}
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for _, record := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellText(record, col)
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// cellText renders one cell of a record, MissingPlaceholder when absent
func cellText(record query.Record, column string) string {
	v, ok := record.Get(column)
	if !ok {
		return query.MissingPlaceholder
	}
	if v.IsText {
		return sanitize(v.Text)
	}
	return v.String()
}

// sanitize guards text cells against CSV injection by prefixing characters
// that trigger formula execution in spreadsheet applications
func sanitize(val string) string {
	if len(val) == 0 {
		return val
	}
	switch val[0] {
	case '=', '+', '-', '@', '\t', '\r', '\n', '|':
		return "'" + strings.ReplaceAll(val, "'", "''")
	}
	return val
}
