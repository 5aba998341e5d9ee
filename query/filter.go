package query

import (
	"log/slog"
	"strings"

	"github.com/vegasq/screener/table"
)

// Result is the outcome of filtering a table with a query.
type Result struct {
	View     *View
	Columns  []string
	Records  []Record
	Outcomes []Outcome
}

// Len returns the number of result rows.
func (r *Result) Len() int {
	return len(r.Records)
}

// Skipped returns the outcomes of conditions that did not constrain the result.
func (r *Result) Skipped() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Applied() {
			out = append(out, o)
		}
	}
	return out
}

// Engine filters one table. It holds no per-query state and is safe for
// concurrent use.
type Engine struct {
	table   *table.Table
	schema  *Schema
	columns []string
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithColumns sets the output column order. The default is DefaultColumns
// with the table's identifier in place of "Ticker".
func WithColumns(columns []string) Option {
	return func(e *Engine) {
		if len(columns) > 0 {
			e.columns = append([]string(nil), columns...)
		}
	}
}

// WithLogger sets the logger used to report skipped conditions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine for t. The schema is derived once here.
func NewEngine(t *table.Table, opts ...Option) *Engine {
	e := &Engine{
		table:   t,
		schema:  NewSchema(t),
		columns: defaultColumns(t.Identifier()),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultColumns(identifier string) []string {
	columns := make([]string, 0, len(DefaultColumns))
	columns = append(columns, identifier)
	return append(columns, DefaultColumns[1:]...)
}

// Filter filters t with the default engine settings.
func Filter(t *table.Table, query string) (*Result, error) {
	return NewEngine(t).Filter(query)
}

// Table returns the table the engine filters.
func (e *Engine) Table() *table.Table {
	return e.table
}

// Schema returns the metric vocabulary of the engine's table.
func (e *Engine) Schema() *Schema {
	return e.schema
}

// Columns returns the output column order.
func (e *Engine) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Filter applies every condition of query in order, each narrowing the rows
// left by the previous one, and projects the result onto the output columns.
//
// Conditions that cannot be parsed or evaluated are skipped and reported in
// Result.Outcomes. The returned error is non-nil only for invalid input
// (see ValidateQuery) or a *ProjectionError.
func (e *Engine) Filter(query string) (*Result, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return &Result{View: EmptyView(e.table), Columns: e.Columns(), Records: []Record{}}, nil
	}

	conditions := SplitConditions(query)
	if err := ValidateConditions(conditions); err != nil {
		return nil, err
	}

	view := NewView(e.table)
	outcomes := make([]Outcome, 0, len(conditions))
	for _, text := range conditions {
		var outcome Outcome
		view, outcome = e.apply(view, text)
		outcomes = append(outcomes, outcome)
	}

	records, err := Project(view, e.columns)
	if err != nil {
		e.logger.Error("projection failed", "error", err)
		return nil, err
	}

	e.logger.Debug("filter complete",
		"query", query,
		"conditions", len(conditions),
		"rows", len(records))

	return &Result{
		View:     view,
		Columns:  e.Columns(),
		Records:  records,
		Outcomes: outcomes,
	}, nil
}

// apply parses and evaluates one condition. On any failure the view is
// returned unchanged together with the skip reason.
func (e *Engine) apply(view *View, text string) (*View, Outcome) {
	cond, reason := ParseCondition(e.schema, text)
	if reason != NotSkipped {
		e.logger.Warn("skipping condition",
			"condition", text,
			"reason", reason.String(),
			"tokens", describe(Tokenize(text, e.schema)))
		return view, Outcome{Text: text, Skipped: reason, Matched: view.Len()}
	}

	narrowed, err := view.Apply(cond)
	if err != nil {
		e.logger.Warn("skipping condition",
			"condition", text,
			"reason", SkipEvaluation.String(),
			"error", err)
		return view, Outcome{Text: text, Condition: cond, Skipped: SkipEvaluation, Err: err, Matched: view.Len()}
	}

	e.logger.Debug("applied condition", "condition", cond.String(), "rows", narrowed.Len())
	return narrowed, Outcome{Text: text, Condition: cond, Matched: narrowed.Len()}
}
