package reader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vegasq/screener/table"
)

// maxFiles limits how many files one glob pattern may load
const maxFiles = 1000

// FileSource loads a table from a local file or from every file matching a
// glob pattern. Rows of all matched files are merged into one table.
//
// The pattern can include wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
type FileSource struct {
	Pattern string
	Options Options
}

// Location implements Source.
func (s *FileSource) Location() string {
	return s.Pattern
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (*table.Table, error) {
	t, err := s.load(ctx)
	if err != nil {
		return nil, &LoadError{Location: s.Pattern, Err: err}
	}
	return t, nil
}

func (s *FileSource) load(ctx context.Context) (*table.Table, error) {
	paths := []string{s.Pattern}
	if strings.ContainsAny(s.Pattern, "*?[") {
		matches, err := filepath.Glob(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no files match pattern %s", ErrNotFound, s.Pattern)
		}
		if len(matches) > maxFiles {
			return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
		}
		paths = matches
	}

	frames := make([]*frame, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := readFile(path, s.Options)
		if err != nil {
			if len(paths) > 1 {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return nil, err
		}
		frames = append(frames, f)
	}

	return buildTable(s.Options.identifier(), frames...)
}

// readFile decodes one local file
func readFile(path string, opts Options) (*frame, error) {
	format, compressed, err := detectFormat(path, opts.Format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	switch format {
	case FormatParquet:
		stat, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		return decodeParquet(file, stat.Size(), opts.identifier())
	default:
		return decodeCSV(file, compressed, opts.identifier())
	}
}
