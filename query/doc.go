// Package query parses screening queries and filters a table.Table with them.
//
// A query is a list of conditions joined by the literal separator AND. Each
// condition is either simple or compound:
//
//	P/E Ratio > 15
//	Total Debt / Total Revenue <= 0.5
//
// Simple conditions compare one metric against a numeric threshold. Compound
// conditions combine two metrics with one of + - * / and compare the result.
// Supported comparators are >, <, >=, <=, =, == and !=.
//
// # Basic Usage
//
//	engine := query.NewEngine(tbl)
//	res, err := engine.Filter("P/E Ratio > 5 AND P/E Ratio < 20")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, rec := range res.Records {
//	    fmt.Println(rec.Key())
//	}
//
// # Metric Names
//
// Metric names are recognised with the Schema, which is derived from the
// table's columns. Names may contain spaces and operator characters such as
// "P/E Ratio" or "Debt-to-Equity Ratio"; the lexer always tries metric names
// first and picks the longest one at a position, so "Operating Cashflow 3years %"
// is never read as "Operating Cashflow" followed by garbage.
//
// # Malformed Conditions
//
// A condition that cannot be parsed or evaluated is skipped rather than
// failing the whole query. Every condition produces an Outcome in the Result
// carrying either the number of rows it matched or a SkipReason, so a skipped
// condition can be told apart from one that matched nothing.
//
// # Empty Queries
//
// An empty or whitespace-only query returns no rows. A non-empty query with no
// usable conditions returns the whole table.
package query
