package query

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/vegasq/screener/table"
)

func quietEngine(t *testing.T, rows ...stockRow) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(buildStockTable(t, rows...), WithLogger(logger))
}

func peRows() []stockRow {
	return []stockRow{
		{Ticker: "AAA", Metrics: map[string]float64{"P/E Ratio": 3}},
		{Ticker: "BBB", Metrics: map[string]float64{"P/E Ratio": 10}},
		{Ticker: "CCC", Metrics: map[string]float64{"P/E Ratio": 30}},
	}
}

func TestFilter_Queries(t *testing.T) {
	rows := []stockRow{
		{Ticker: "R1", Metrics: map[string]float64{
			"P/E Ratio": 10, "Total Debt": 100, "Total Revenue": 50, "ROE": 0.2,
			"Operating Cashflow": 100, "Operating Cashflow 3years %": 5,
		}},
		{Ticker: "R2", Metrics: map[string]float64{
			"P/E Ratio": 25, "Total Debt": 40, "Total Revenue": 50, "ROE": -0.1,
			"Operating Cashflow": 1, "Operating Cashflow 3years %": 50,
		}},
		{Ticker: "R3", Metrics: map[string]float64{
			"Total Debt": 10, "Total Revenue": 0,
		}},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"simple greater", "P/E Ratio > 15", []string{"R2"}},
		{"simple less or equal", "P/E Ratio <= 10", []string{"R1"}},
		{"equal", "P/E Ratio = 25", []string{"R2"}},
		{"double equal", "P/E Ratio == 25", []string{"R2"}},
		{"not equal excludes missing", "P/E Ratio != 25", []string{"R1"}},
		{"negative threshold", "ROE > -0.5", []string{"R1", "R2"}},
		{"compound division", "Total Debt/Total Revenue > 1", []string{"R1"}},
		{"division by zero never matches", "Total Debt / Total Revenue >= 0", []string{"R1", "R2"}},
		{"compound subtraction", "Total Debt - Total Revenue < 0", []string{"R2"}},
		{"compound sum", "Total Debt + Total Revenue = 150", []string{"R1"}},
		{"compound product", "P/E Ratio * ROE > 1", []string{"R1"}},
		{"longest metric name", "Operating Cashflow 3years % > 10", []string{"R2"}},
		{"shorter metric name", "Operating Cashflow > 10", []string{"R1"}},
		{"conjunction", "Total Revenue >= 50 AND P/E Ratio < 20", []string{"R1"}},
		{"no match", "P/E Ratio > 1000", []string{}},
		{"malformed only gives everything", "Dividend Yield > 3", []string{"R1", "R2", "R3"}},
		{"separators only gives everything", "AND AND", []string{"R1", "R2", "R3"}},
		{"malformed condition ignored", "P/E Ratio > 15 AND ROE >", []string{"R2"}},
		{"exponent threshold skipped", "P/E Ratio > 1e9", []string{"R1", "R2", "R3"}},
	}

	engine := quietEngine(t, rows...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Filter(tt.query)
			if err != nil {
				t.Fatalf("Filter(%q) error = %v", tt.query, err)
			}
			if got := tickers(res); !equalStrings(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFilter_EmptyQuery(t *testing.T) {
	engine := quietEngine(t, peRows()...)

	for _, q := range []string{"", "   ", "\t\n"} {
		res, err := engine.Filter(q)
		if err != nil {
			t.Fatalf("Filter(%q) error = %v", q, err)
		}
		if res.Len() != 0 || res.View.Len() != 0 {
			t.Errorf("Filter(%q) returned %d rows, want 0", q, res.Len())
		}
		if len(res.Outcomes) != 0 {
			t.Errorf("Filter(%q) outcomes = %v, want none", q, res.Outcomes)
		}
	}
}

func TestFilter_Narrowing(t *testing.T) {
	engine := quietEngine(t, peRows()...)

	res, err := engine.Filter("P/E Ratio > 5 AND P/E Ratio < 20")
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got := tickers(res); !equalStrings(got, []string{"BBB"}) {
		t.Errorf("Filter() = %v, want [BBB]", got)
	}

	if len(res.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(res.Outcomes))
	}
	if res.Outcomes[0].Matched != 2 || res.Outcomes[1].Matched != 1 {
		t.Errorf("matched counts = %d, %d, want 2, 1", res.Outcomes[0].Matched, res.Outcomes[1].Matched)
	}
}

func TestFilter_Commutative(t *testing.T) {
	engine := quietEngine(t, peRows()...)

	pairs := [][2]string{
		{"P/E Ratio > 5 AND P/E Ratio < 20", "P/E Ratio < 20 AND P/E Ratio > 5"},
		{"P/E Ratio >= 3 AND ROE > 1", "ROE > 1 AND P/E Ratio >= 3"},
		{"P/E Ratio > 2 AND junk", "junk AND P/E Ratio > 2"},
	}
	for _, p := range pairs {
		a, err := engine.Filter(p[0])
		if err != nil {
			t.Fatalf("Filter(%q) error = %v", p[0], err)
		}
		b, err := engine.Filter(p[1])
		if err != nil {
			t.Fatalf("Filter(%q) error = %v", p[1], err)
		}
		if !equalStrings(tickers(a), tickers(b)) {
			t.Errorf("%q = %v but %q = %v", p[0], tickers(a), p[1], tickers(b))
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	engine := quietEngine(t, peRows()...)

	first, err := engine.Filter("P/E Ratio > 5")
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := engine.Filter("P/E Ratio > 5")
		if err != nil {
			t.Fatalf("Filter() error = %v", err)
		}
		if !equalStrings(tickers(first), tickers(again)) {
			t.Errorf("run %d = %v, want %v", i, tickers(again), tickers(first))
		}
	}
}

func TestFilter_SkipIsNotEmptyMatch(t *testing.T) {
	engine := quietEngine(t, peRows()...)

	res, err := engine.Filter("ROE > 5 AND P/E Ratio > AND Dividend Yield > 1")
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	want := []SkipReason{NotSkipped, SkipNoThreshold, SkipNoMetric}
	for i, o := range res.Outcomes {
		if o.Skipped != want[i] {
			t.Errorf("outcome %d = %v, want %v", i, o.Skipped, want[i])
		}
	}
	if !res.Outcomes[0].Applied() || res.Outcomes[0].Matched != 0 {
		t.Errorf("first outcome = %v, want applied with 0 rows", res.Outcomes[0])
	}
	if got := len(res.Skipped()); got != 2 {
		t.Errorf("len(Skipped()) = %d, want 2", got)
	}
}

// The condition names a column that exists in the schema but not in the
// table it is evaluated against.
func TestFilter_EvaluationFailureSkipsCondition(t *testing.T) {
	tbl := buildStockTable(t, peRows()...)
	other := buildTable(t, []string{"P/E Ratio"}, peRows()...)

	view := NewView(other)
	cond := &CompoundCondition{Left: "P/E Ratio", Op: Div, Right: "ROE", Comparator: Greater, Threshold: 1}
	if _, err := view.Apply(cond); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("Apply() error = %v, want ErrUnknownMetric", err)
	}

	engine := NewEngine(tbl, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	engine.table = other
	engine.columns = []string{"Ticker", "P/E Ratio"}

	res, err := engine.Filter("P/E Ratio / ROE > 1 AND P/E Ratio > 5")
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if res.Outcomes[0].Skipped != SkipEvaluation || res.Outcomes[0].Err == nil {
		t.Errorf("first outcome = %+v, want evaluation skip", res.Outcomes[0])
	}
	if got := tickers(res); !equalStrings(got, []string{"BBB", "CCC"}) {
		t.Errorf("Filter() = %v, want [BBB CCC]", got)
	}
}

func TestFilter_ProjectionFailure(t *testing.T) {
	tbl := buildTable(t, []string{"P/E Ratio", "ROE"}, peRows()...)
	engine := NewEngine(tbl, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := engine.Filter("P/E Ratio > 5")
	var perr *ProjectionError
	if !errors.As(err, &perr) {
		t.Fatalf("Filter() error = %v, want *ProjectionError", err)
	}
	if len(perr.Missing) != len(DefaultColumns)-3 {
		t.Errorf("missing = %v", perr.Missing)
	}

	engine = NewEngine(tbl, WithColumns([]string{"Ticker", "ROE", "P/E Ratio"}))
	res, err := engine.Filter("P/E Ratio > 5")
	if err != nil {
		t.Fatalf("Filter() with custom columns error = %v", err)
	}
	if !equalStrings(res.Columns, []string{"Ticker", "ROE", "P/E Ratio"}) {
		t.Errorf("Columns = %v", res.Columns)
	}
}

func TestFilter_ProjectionCompleteness(t *testing.T) {
	engine := quietEngine(t, peRows()...)

	res, err := engine.Filter("P/E Ratio > 1")
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if res.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", res.Len())
	}
	for _, rec := range res.Records {
		if !equalStrings(rec.Columns, DefaultColumns) {
			t.Errorf("record %s columns = %v", rec.Key(), rec.Columns)
		}
		if len(rec.Values) != len(DefaultColumns) {
			t.Errorf("record %s has %d values", rec.Key(), len(rec.Values))
		}
		if id, _ := rec.Get("Ticker"); id.Text != rec.Key() {
			t.Errorf("Ticker cell = %q, want %q", id.Text, rec.Key())
		}
		if roe, _ := rec.Get("ROE"); !roe.Missing {
			t.Errorf("record %s ROE = %v, want missing", rec.Key(), roe)
		}
	}
}

func TestFilter_CustomIdentifier(t *testing.T) {
	b := table.NewBuilder("Symbol", DefaultColumns[1:])
	for i, key := range []string{"AAA", "BBB"} {
		values := make([]float64, len(DefaultColumns)-1)
		for j := range values {
			values[j] = math.NaN()
		}
		values[0] = float64(i + 1) // Market Capitalization
		if err := b.Add(key, values); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	engine := NewEngine(tbl, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	res, err := engine.Filter("Market Capitalization > 1")
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got := tickers(res); !equalStrings(got, []string{"BBB"}) {
		t.Errorf("Filter() = %v, want [BBB]", got)
	}
	if res.Columns[0] != "Symbol" || len(res.Columns) != len(DefaultColumns) {
		t.Errorf("Columns = %v, want Symbol followed by the default metrics", res.Columns)
	}
	if id, ok := res.Records[0].Get("Symbol"); !ok || id.Text != "BBB" {
		t.Errorf("Symbol cell = %+v, %v, want BBB", id, ok)
	}
}

func TestFilter_Validation(t *testing.T) {
	engine := quietEngine(t, peRows()...)

	if _, err := engine.Filter(strings.Repeat("x", MaxQueryLength+1)); !errors.Is(err, ErrQueryTooLong) {
		t.Errorf("long query error = %v, want ErrQueryTooLong", err)
	}

	many := strings.Repeat("P/E Ratio > 1 AND ", MaxConditions+1)
	if _, err := engine.Filter(many); !errors.Is(err, ErrTooManyConditions) {
		t.Errorf("many conditions error = %v, want ErrTooManyConditions", err)
	}
}

func TestFilter_PackageLevel(t *testing.T) {
	res, err := Filter(buildStockTable(t, peRows()...), "P/E Ratio < 5")
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got := tickers(res); !equalStrings(got, []string{"AAA"}) {
		t.Errorf("Filter() = %v, want [AAA]", got)
	}
}

func TestComparator_Compare(t *testing.T) {
	tests := []struct {
		name  string
		left  float64
		cmp   Comparator
		right float64
		want  bool
	}{
		{"greater", 2, Greater, 1, true},
		{"greater equal same", 1, GreaterEqual, 1, true},
		{"less", 1, Less, 2, true},
		{"less equal wrong", 3, LessEqual, 2, false},
		{"equal exact", 0.30000000000000004, Equal, 0.3, false},
		{"equal", 0.3, Equal, 0.3, true},
		{"not equal", 1, NotEqual, 2, true},
		{"NaN not equal", math.NaN(), NotEqual, 2, false},
		{"NaN greater", math.NaN(), Greater, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmp.Compare(tt.left, tt.right); got != tt.want {
				t.Errorf("%v %v %v = %v, want %v", tt.left, tt.cmp, tt.right, got, tt.want)
			}
		})
	}
}

func TestArithOp_Apply(t *testing.T) {
	tests := []struct {
		name   string
		op     ArithOp
		a, b   float64
		want   float64
		wantOK bool
	}{
		{"add", Add, 1, 2, 3, true},
		{"sub", Sub, 1, 2, -1, true},
		{"mul", Mul, 3, 2, 6, true},
		{"div", Div, 3, 2, 1.5, true},
		{"div by zero", Div, 3, 0, 0, false},
		{"zero by zero", Div, 0, 0, 0, false},
		{"overflow", Mul, math.MaxFloat64, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.op.Apply(tt.a, tt.b)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("%v %v %v = %v, %v, want %v, %v", tt.a, tt.op, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
