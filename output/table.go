package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/screener/query"
)

// TableFormatter outputs records as an aligned text table
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new text table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format renders records as a table with a header row
func (f *TableFormatter) Format(columns []string, records []query.Record) error {
	tw := tablewriter.NewWriter(f.writer)
	tw.SetHeader(columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, record := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := record.Get(col); ok {
				row[i] = v.String()
			} else {
				row[i] = query.MissingPlaceholder
			}
		}
		tw.Append(row)
	}

	tw.Render()
	return nil
}
