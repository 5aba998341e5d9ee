package query

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vegasq/screener/table"
)

// ErrUnknownMetric is returned when a condition names a column the table lacks.
var ErrUnknownMetric = errors.New("unknown metric")

// Condition is one AND-joined clause of a query.
type Condition interface {
	// Metrics returns the metric names the condition reads.
	Metrics() []string

	// Select returns the rows of candidates that satisfy the condition.
	Select(t *table.Table, candidates *roaring.Bitmap) (*roaring.Bitmap, error)

	String() string
}

// SimpleCondition compares one metric against a threshold.
type SimpleCondition struct {
	Metric     string
	Comparator Comparator
	Threshold  float64
}

// Metrics implements Condition.
func (c *SimpleCondition) Metrics() []string {
	return []string{c.Metric}
}

// Select implements Condition. Rows with a missing value never match.
func (c *SimpleCondition) Select(t *table.Table, candidates *roaring.Bitmap) (*roaring.Bitmap, error) {
	col, err := columnOf(t, c.Metric)
	if err != nil {
		return nil, err
	}

	selected := roaring.New()
	it := candidates.Iterator()
	for it.HasNext() {
		row := it.Next()
		v, ok := t.Value(int(row), col)
		if ok && c.Comparator.Compare(v, c.Threshold) {
			selected.Add(row)
		}
	}
	return selected, nil
}

func (c *SimpleCondition) String() string {
	return fmt.Sprintf("%s %s %s", c.Metric, c.Comparator, formatThreshold(c.Threshold))
}

// CompoundCondition combines two metrics arithmetically and compares the result.
type CompoundCondition struct {
	Left       string
	Op         ArithOp
	Right      string
	Comparator Comparator
	Threshold  float64
}

// Metrics implements Condition.
func (c *CompoundCondition) Metrics() []string {
	return []string{c.Left, c.Right}
}

// Select implements Condition. Rows where either operand is missing, or where
// the arithmetic is undefined (division by zero), never match.
func (c *CompoundCondition) Select(t *table.Table, candidates *roaring.Bitmap) (*roaring.Bitmap, error) {
	left, err := columnOf(t, c.Left)
	if err != nil {
		return nil, err
	}
	right, err := columnOf(t, c.Right)
	if err != nil {
		return nil, err
	}

	selected := roaring.New()
	it := candidates.Iterator()
	for it.HasNext() {
		row := it.Next()
		a, ok := t.Value(int(row), left)
		if !ok {
			continue
		}
		b, ok := t.Value(int(row), right)
		if !ok {
			continue
		}
		v, ok := c.Op.Apply(a, b)
		if ok && c.Comparator.Compare(v, c.Threshold) {
			selected.Add(row)
		}
	}
	return selected, nil
}

func (c *CompoundCondition) String() string {
	return fmt.Sprintf("%s %s %s %s %s", c.Left, c.Op, c.Right, c.Comparator, formatThreshold(c.Threshold))
}

func columnOf(t *table.Table, metric string) (int, error) {
	col, ok := t.ColumnIndex(metric)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	return col, nil
}
