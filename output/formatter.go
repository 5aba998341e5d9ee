package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/screener/query"
)

// ErrUnknownFormat is returned by New for unsupported format names.
var ErrUnknownFormat = errors.New("unknown output format")

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes records with the given header columns
	Format(columns []string, records []query.Record) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Formats lists the names accepted by New.
var Formats = []string{"jsonl", "json", "csv", "table"}

// New creates the formatter for name.
func New(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jsonl", "ndjson":
		return NewJSONFormatter(w), nil
	case "json":
		return NewJSONArrayFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table", "text":
		return NewTableFormatter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, name, strings.Join(Formats, ", "))
	}
}
