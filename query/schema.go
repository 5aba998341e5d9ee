package query

import (
	"sort"
	"strings"

	"github.com/vegasq/screener/table"
)

// Schema is the metric vocabulary of a table.
//
// It recognises metric names inside free-form condition text. When more than
// one name matches at a position the longest wins, and among names of equal
// length the one declared first.
type Schema struct {
	identifier string
	metrics    []string
	known      map[string]struct{}
	// candidates by first byte, longest first
	byFirst map[byte][]string
}

// NewSchema derives the schema from the table's column set.
func NewSchema(t *table.Table) *Schema {
	return newSchema(t.Identifier(), t.Columns())
}

func newSchema(identifier string, metrics []string) *Schema {
	s := &Schema{
		identifier: identifier,
		metrics:    make([]string, 0, len(metrics)),
		known:      make(map[string]struct{}, len(metrics)),
		byFirst:    make(map[byte][]string),
	}
	for _, m := range metrics {
		if m == "" || m == identifier {
			continue
		}
		if _, dup := s.known[m]; dup {
			continue
		}
		s.known[m] = struct{}{}
		s.metrics = append(s.metrics, m)
		s.byFirst[m[0]] = append(s.byFirst[m[0]], m)
	}
	for _, names := range s.byFirst {
		sort.SliceStable(names, func(i, j int) bool {
			return len(names[i]) > len(names[j])
		})
	}
	return s
}

// Identifier returns the identifier column name.
func (s *Schema) Identifier() string {
	return s.identifier
}

// Metrics returns the metric names in declared order.
func (s *Schema) Metrics() []string {
	out := make([]string, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Columns returns the identifier followed by the metric names.
func (s *Schema) Columns() []string {
	out := make([]string, 0, len(s.metrics)+1)
	out = append(out, s.identifier)
	return append(out, s.metrics...)
}

// MatchAt returns the metric name that starts at byte offset pos of input.
func (s *Schema) MatchAt(input string, pos int) (string, bool) {
	if pos < 0 || pos >= len(input) {
		return "", false
	}
	rest := input[pos:]
	for _, name := range s.byFirst[rest[0]] {
		if strings.HasPrefix(rest, name) {
			return name, true
		}
	}
	return "", false
}

// Find returns the leftmost metric name in input at or after from, and its offset.
func (s *Schema) Find(input string, from int) (string, int, bool) {
	if len(s.metrics) == 0 {
		return "", -1, false
	}
	for pos := max(from, 0); pos < len(input); pos++ {
		if name, ok := s.MatchAt(input, pos); ok {
			return name, pos, true
		}
	}
	return "", -1, false
}
