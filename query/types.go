package query

import (
	"fmt"
	"math"
	"strconv"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenMetric     TokenType = iota // a known metric name
	TokenComparator                  // run of < > = !
	TokenNumber                      // -?digits(.digits)?
	TokenArith                       // + - * /
	TokenText                        // anything else
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenMetric:
		return "metric"
	case TokenComparator:
		return "comparator"
	case TokenNumber:
		return "number"
	case TokenArith:
		return "operator"
	case TokenText:
		return "text"
	case TokenEOF:
		return "EOF"
	default:
		return "unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Comparator is a comparison between a computed value and a threshold.
type Comparator int

const (
	Greater Comparator = iota
	Less
	GreaterEqual
	LessEqual
	Equal
	NotEqual
)

var comparators = map[string]Comparator{
	">":  Greater,
	"<":  Less,
	">=": GreaterEqual,
	"<=": LessEqual,
	"=":  Equal,
	"==": Equal,
	"!=": NotEqual,
}

// ParseComparator maps a comparator spelling to a Comparator.
// "=" and "==" are the same comparator.
func ParseComparator(s string) (Comparator, bool) {
	c, ok := comparators[s]
	return c, ok
}

func (c Comparator) String() string {
	switch c {
	case Greater:
		return ">"
	case Less:
		return "<"
	case GreaterEqual:
		return ">="
	case LessEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	default:
		return "?"
	}
}

// Compare applies the comparator. Equality is exact. NaN never compares true,
// not even for NotEqual, so callers must drop missing values before comparing.
func (c Comparator) Compare(left, right float64) bool {
	if math.IsNaN(left) || math.IsNaN(right) {
		return false
	}
	switch c {
	case Greater:
		return left > right
	case Less:
		return left < right
	case GreaterEqual:
		return left >= right
	case LessEqual:
		return left <= right
	case Equal:
		return left == right
	case NotEqual:
		return left != right
	default:
		return false
	}
}

// ArithOp is the binary operator of a compound condition.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

// ParseArithOp maps an operator character to an ArithOp.
func ParseArithOp(s string) (ArithOp, bool) {
	switch s {
	case "+":
		return Add, true
	case "-":
		return Sub, true
	case "*":
		return Mul, true
	case "/":
		return Div, true
	}
	return 0, false
}

func (o ArithOp) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return "?"
	}
}

// Apply computes left op right. The second result is false when the result is
// undefined: division by zero, or a NaN or infinite value.
func (o ArithOp) Apply(left, right float64) (float64, bool) {
	var v float64
	switch o {
	case Add:
		v = left + right
	case Sub:
		v = left - right
	case Mul:
		v = left * right
	case Div:
		if right == 0 {
			return 0, false
		}
		v = left / right
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SkipReason says why a condition contributed no constraint.
type SkipReason int

const (
	NotSkipped SkipReason = iota
	SkipNoMetric
	SkipNoComparator
	SkipBadComparator
	SkipNoThreshold
	SkipMalformedCompound
	SkipEvaluation
)

func (r SkipReason) String() string {
	switch r {
	case NotSkipped:
		return "applied"
	case SkipNoMetric:
		return "no metric"
	case SkipNoComparator:
		return "no comparator"
	case SkipBadComparator:
		return "invalid comparator"
	case SkipNoThreshold:
		return "no threshold"
	case SkipMalformedCompound:
		return "malformed compound condition"
	case SkipEvaluation:
		return "evaluation failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one condition of a query.
type Outcome struct {
	Text      string
	Condition Condition
	Skipped   SkipReason
	Err       error // set when Skipped is SkipEvaluation
	Matched   int   // rows remaining after the condition was applied
}

// Applied reports whether the condition constrained the result.
func (o Outcome) Applied() bool {
	return o.Skipped == NotSkipped
}

func (o Outcome) String() string {
	if o.Applied() {
		return fmt.Sprintf("%q: %s (%d rows)", o.Text, o.Condition, o.Matched)
	}
	return fmt.Sprintf("%q: skipped (%s)", o.Text, o.Skipped)
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
