package query

import (
	"strconv"
	"strings"
)

// Separator joins the conditions of a query. It is matched case-sensitively.
const Separator = "AND"

// SplitConditions splits a query on Separator, trims every piece and drops
// empty ones.
func SplitConditions(query string) []string {
	parts := strings.Split(query, Separator)
	conditions := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			conditions = append(conditions, p)
		}
	}
	return conditions
}

// Parser turns the tokens of one condition into a Condition
type Parser struct {
	tokens []Token
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseCondition parses a single condition. When the text does not form a
// simple or compound condition the reason is returned instead.
func ParseCondition(schema *Schema, text string) (Condition, SkipReason) {
	return NewParser(Tokenize(text, schema)).Parse()
}

// Parse classifies the condition and parses it.
func (p *Parser) Parse() (Condition, SkipReason) {
	if p.isCompound() {
		return p.parseCompound()
	}
	return p.parseSimple()
}

// isCompound reports whether any arithmetic operator appears outside metric
// names and numeric literals.
func (p *Parser) isCompound() bool {
	return p.indexOf(TokenArith, 0) >= 0
}

// indexOf returns the first token of type typ at or after from, or -1
func (p *Parser) indexOf(typ TokenType, from int) int {
	for i := from; i < len(p.tokens); i++ {
		if p.tokens[i].Type == typ {
			return i
		}
	}
	return -1
}

// parseSimple parses: metric ... comparator number
func (p *Parser) parseSimple() (Condition, SkipReason) {
	m := p.indexOf(TokenMetric, 0)
	if m < 0 {
		return nil, SkipNoMetric
	}

	c := p.indexOf(TokenComparator, m+1)
	if c < 0 {
		return nil, SkipNoComparator
	}
	cmp, ok := ParseComparator(p.tokens[c].Value)
	if !ok {
		return nil, SkipBadComparator
	}

	if c+1 >= len(p.tokens) || p.tokens[c+1].Type != TokenNumber {
		return nil, SkipNoThreshold
	}
	threshold, ok := parseNumber(p.tokens[c+1].Value)
	if !ok {
		return nil, SkipNoThreshold
	}

	return &SimpleCondition{
		Metric:     p.tokens[m].Value,
		Comparator: cmp,
		Threshold:  threshold,
	}, NotSkipped
}

var compoundShape = [...]TokenType{TokenMetric, TokenArith, TokenMetric, TokenComparator, TokenNumber}

// parseCompound parses: metric op metric comparator number, as adjacent tokens
func (p *Parser) parseCompound() (Condition, SkipReason) {
	for i := 0; i+len(compoundShape) <= len(p.tokens); i++ {
		if !p.matches(i) {
			continue
		}

		op, _ := ParseArithOp(p.tokens[i+1].Value)
		cmp, ok := ParseComparator(p.tokens[i+3].Value)
		if !ok {
			return nil, SkipBadComparator
		}
		threshold, ok := parseNumber(p.tokens[i+4].Value)
		if !ok {
			return nil, SkipNoThreshold
		}

		return &CompoundCondition{
			Left:       p.tokens[i].Value,
			Op:         op,
			Right:      p.tokens[i+2].Value,
			Comparator: cmp,
			Threshold:  threshold,
		}, NotSkipped
	}
	return nil, SkipMalformedCompound
}

func (p *Parser) matches(at int) bool {
	for j, typ := range compoundShape {
		if p.tokens[at+j].Type != typ {
			return false
		}
	}
	return true
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
