package reader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vegasq/screener/table"
)

var (
	// ErrLoad matches every *LoadError.
	ErrLoad = errors.New("failed to load table")

	// ErrNotFound is returned when the table location does not exist.
	ErrNotFound = errors.New("table source not found")

	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported table format")

	// ErrSchemaMismatch is returned when files of one glob have different columns.
	ErrSchemaMismatch = errors.New("files have different columns")
)

// LoadError reports a table that could not be loaded from Location.
type LoadError struct {
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load table from %s: %v", e.Location, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes every LoadError match ErrLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// Format is the encoding of a table file.
type Format int

const (
	FormatAuto Format = iota
	FormatCSV
	FormatParquet
)

// ParseFormat parses a format name: "", "auto", "csv" or "parquet".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		return "auto"
	}
}

// detectFormat resolves the format of name, and whether it is gzip-compressed.
func detectFormat(name string, override Format) (Format, bool, error) {
	lower := strings.ToLower(name)
	gz := strings.HasSuffix(lower, ".gz")
	lower = strings.TrimSuffix(lower, ".gz")

	if override != FormatAuto {
		return override, gz, nil
	}

	switch filepath.Ext(lower) {
	case ".csv":
		return FormatCSV, gz, nil
	case ".parquet", ".pq":
		if gz {
			return FormatAuto, false, fmt.Errorf("%w: compressed parquet %q", ErrUnsupportedFormat, name)
		}
		return FormatParquet, false, nil
	default:
		return FormatAuto, false, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Options control how a table is read.
type Options struct {
	// Identifier is the key column; table.DefaultIdentifier when empty.
	Identifier string

	// Format overrides extension-based detection.
	Format Format

	// Storage configures the client for s3:// locations.
	Storage StorageOptions
}

func (o Options) identifier() string {
	if o.Identifier == "" {
		return table.DefaultIdentifier
	}
	return o.Identifier
}

// Source loads a table.
type Source interface {
	// Load reads the table. Errors are *LoadError.
	Load(ctx context.Context) (*table.Table, error)

	// Location describes where the table comes from.
	Location() string
}

// NewSource returns the Source for a location: an s3:// URL, a glob
// pattern, or a single file path.
func NewSource(location string, opts Options) (Source, error) {
	if location == "" {
		return nil, &LoadError{Location: "<unset>", Err: ErrNotFound}
	}
	if strings.HasPrefix(location, objectScheme) {
		return newObjectSourceFromURL(location, opts)
	}
	return &FileSource{Pattern: location, Options: opts}, nil
}

// frame is one decoded file before it becomes a Table.
type frame struct {
	columns []string
	keys    []string
	rows    [][]float64
}

// buildTable merges frames into a Table. Later frames may order their
// columns differently but must have the same set.
func buildTable(identifier string, frames ...*frame) (*table.Table, error) {
	if len(frames) == 0 {
		return table.NewBuilder(identifier, nil).Build()
	}

	columns := frames[0].columns
	b := table.NewBuilder(identifier, columns)

	for _, f := range frames {
		remap, err := columnMapping(columns, f.columns)
		if err != nil {
			return nil, err
		}
		for i, key := range f.keys {
			row := f.rows[i]
			if remap != nil {
				ordered := make([]float64, len(columns))
				for j, src := range remap {
					ordered[j] = row[src]
				}
				row = ordered
			}
			if err := b.Add(key, row); err != nil {
				return nil, err
			}
		}
	}
	return b.Build()
}

// columnMapping returns, for every column of want, its index in got, or nil
// when the orders already agree.
func columnMapping(want, got []string) ([]int, error) {
	if len(want) != len(got) {
		return nil, fmt.Errorf("%w: %d columns, want %d", ErrSchemaMismatch, len(got), len(want))
	}

	same := true
	for i := range want {
		if want[i] != got[i] {
			same = false
			break
		}
	}
	if same {
		return nil, nil
	}

	index := make(map[string]int, len(got))
	for i, c := range got {
		index[c] = i
	}
	remap := make([]int, len(want))
	for i, c := range want {
		j, ok := index[c]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrSchemaMismatch, c)
		}
		remap[i] = j
	}
	return remap, nil
}
