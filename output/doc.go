// Package output renders screening results.
//
// Every formatter writes records in the column order of the result, so the
// identifier comes first and metrics follow in the order they were
// requested. Missing values are written as query.MissingPlaceholder.
//
// # Supported Formats
//
//   - jsonl: one JSON object per line (suitable for streaming)
//   - json: a single JSON array
//   - csv: comma-separated values with header row
//   - table: an aligned text table for terminals
//
// # Basic Usage
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result.Columns, result.Records); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// SetOutput changes the destination of an existing formatter:
//
//	var buf bytes.Buffer
//	formatter.SetOutput(&buf)
package output
