package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes a single condition.
//
// Metric names are tried before anything else at every position, so operator
// characters inside a name ("P/E Ratio", "Debt-to-Equity Ratio") never split it.
type Lexer struct {
	input  string
	pos    int
	schema *Schema
	prev   TokenType // last token emitted, TokenEOF before the first
}

// NewLexer creates a new lexer
func NewLexer(input string, schema *Schema) *Lexer {
	return &Lexer{input: input, schema: schema, prev: TokenEOF}
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isComparatorChar(c byte) bool {
	return c == '<' || c == '>' || c == '=' || c == '!'
}

func isArithChar(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '/'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// signedNumber reports whether a '-' at pos starts a negative literal rather
// than a subtraction: it must touch a digit and must not follow an operand.
func (l *Lexer) signedNumber() bool {
	if l.pos+1 >= len(l.input) || !isDigit(l.input[l.pos+1]) {
		return false
	}
	return l.prev == TokenComparator || l.prev == TokenEOF || l.prev == TokenText
}

// readNumber reads -?digits(.digits*)?
func (l *Lexer) readNumber() string {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	return l.input[start:l.pos]
}

// numberSuffix reports whether a letter is glued to the number that ends at
// pos, as in "1e9" or "5bn". Such a literal is not a threshold.
func (l *Lexer) numberSuffix() bool {
	if l.pos >= len(l.input) {
		return false
	}
	if _, ok := l.schema.MatchAt(l.input, l.pos); ok {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return unicode.IsLetter(r)
}

// readWord reads until whitespace or a comparator character
func (l *Lexer) readWord() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) || isComparatorChar(l.input[l.pos]) {
			return
		}
		l.pos += size
	}
}

// readComparator reads a maximal run of comparator characters
func (l *Lexer) readComparator() string {
	start := l.pos
	for l.pos < len(l.input) && isComparatorChar(l.input[l.pos]) {
		l.pos++
	}
	return l.input[start:l.pos]
}

// readText reads until whitespace, an operator, a digit, or a metric name
func (l *Lexer) readText() string {
	start := l.pos
	end := len(l.input)
	if _, next, ok := l.schema.Find(l.input, l.pos+1); ok {
		end = next
	}
	for l.pos < end {
		if l.pos > start {
			c := l.input[l.pos]
			if isComparatorChar(c) || isArithChar(c) || isDigit(c) {
				break
			}
		}
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	var tok Token

	if name, ok := l.schema.MatchAt(l.input, l.pos); ok {
		l.pos += len(name)
		tok = Token{Type: TokenMetric, Value: name, Pos: start}
	} else {
		c := l.input[l.pos]
		switch {
		case isComparatorChar(c):
			tok = Token{Type: TokenComparator, Value: l.readComparator(), Pos: start}
		case isDigit(c), c == '-' && l.signedNumber():
			tok = Token{Type: TokenNumber, Value: l.readNumber(), Pos: start}
			if l.numberSuffix() {
				l.readWord()
				tok = Token{Type: TokenText, Value: l.input[start:l.pos], Pos: start}
			}
		case isArithChar(c):
			l.pos++
			tok = Token{Type: TokenArith, Value: string(c), Pos: start}
		default:
			tok = Token{Type: TokenText, Value: l.readText(), Pos: start}
		}
	}

	l.prev = tok.Type
	return tok
}

// Tokenize returns all tokens from the input, ending with TokenEOF
func Tokenize(input string, schema *Schema) []Token {
	lexer := NewLexer(input, schema)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}

	return tokens
}

// describe renders tokens for debug logging
func describe(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		if tok.Type == TokenEOF {
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Type.String())
		b.WriteByte('(')
		b.WriteString(tok.Value)
		b.WriteByte(')')
	}
	return b.String()
}
