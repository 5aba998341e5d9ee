package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/vegasq/screener/internal/config"
	"github.com/vegasq/screener/internal/logging"
	"github.com/vegasq/screener/internal/server"
	"github.com/vegasq/screener/output"
	"github.com/vegasq/screener/query"
	"github.com/vegasq/screener/reader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[0], os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the parsed command line
type options struct {
	query      string
	format     string
	limit      int
	columns    bool
	serve      bool
	configFile string
	location   string
}

func newFlagSet(name string, stderr io.Writer, opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&opts.query, "query", "q", "", "Screening query (e.g., \"P/E Ratio < 15 AND ROE > 0.2\")")
	fs.StringVarP(&opts.format, "format", "f", "", "Output format: "+strings.Join(output.Formats, ", ")+" (default jsonl)")
	fs.IntVar(&opts.limit, "limit", 0, "Limit number of rows (0 = unlimited)")
	fs.BoolVar(&opts.columns, "columns", false, "List the table's columns instead of screening")
	fs.BoolVar(&opts.serve, "serve", false, "Serve the HTTP API")
	fs.StringVar(&opts.configFile, "config", "", "Path to screener.yaml")
	fs.String("addr", "", "Listen address for --serve (default :5003)")
	fs.String("data-format", "", "Table format: auto, csv, parquet")
	fs.String("identifier", "", "Identifier column (default Ticker)")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("log-format", "", "Log format (text, json)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [options] [table]\n\n", name)
		fmt.Fprintf(stderr, "Screen a table of stock metrics with threshold queries.\n\n")
		fmt.Fprintf(stderr, "The table is a CSV (optionally .gz) or Parquet file, a glob of them,\n")
		fmt.Fprintf(stderr, "or an s3://bucket/key object. It defaults to data.location from the config.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  %s -q \"P/E Ratio < 15 AND ROE > 0.2\" stocks.csv\n", name)
		fmt.Fprintf(stderr, "  %s -f table -q \"Total Debt / Total Revenue < 0.5\" stocks.parquet\n", name)
		fmt.Fprintf(stderr, "  %s --columns stocks.csv\n", name)
		fmt.Fprintf(stderr, "  %s --serve --addr :8080 s3://market-data/stocks.parquet\n", name)
	}
	return fs
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(name, stderr, &opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Validate flag values
	if opts.limit < 0 {
		fmt.Fprintf(stderr, "Error: --limit must be non-negative, got %d\n", opts.limit)
		return 1
	}
	modes := 0
	for _, set := range []bool{opts.query != "", opts.columns, opts.serve} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintf(stderr, "Error: exactly one of -q, --columns or --serve is required\n\n")
		fs.Usage()
		return 1
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "Error: expected at most one table argument, got %d\n", fs.NArg())
		return 1
	}

	cfg, err := config.Load(opts.configFile, fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := logging.Init(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	location := cfg.Data.Location
	if fs.NArg() == 1 {
		location = fs.Arg(0)
	}
	if location == "" {
		fmt.Fprintf(stderr, "Error: missing table argument\n\n")
		fs.Usage()
		return 1
	}

	source, err := reader.NewSource(location, cfg.SourceOptions())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	cache := reader.NewCache(source, logger)

	if opts.serve {
		srv := server.New(cache, server.Options{
			Columns:     cfg.OutputColumns(),
			CORSOrigins: cfg.Server.CORSOrigins,
			Logger:      logger,
		})
		if err := srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout); err != nil {
			logger.Error("server failed", "error", err)
			return 1
		}
		return 0
	}

	t, err := cache.Get(ctx)
	if err != nil {
		if errors.Is(err, reader.ErrNotFound) {
			fmt.Fprintf(stderr, "Error: table '%s' not found\n", location)
			fmt.Fprintf(stderr, "Please check the location and try again.\n")
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	engine := query.NewEngine(t, query.WithColumns(cfg.OutputColumns()), query.WithLogger(logger))

	if opts.columns {
		return printColumns(stdout, stderr, engine, cfg.Output.Format)
	}
	return screen(stdout, stderr, logger, engine, opts.query, cfg.Output.Format, opts.limit)
}

// screen runs q and writes the matching rows
func screen(stdout, stderr io.Writer, logger *slog.Logger, engine *query.Engine, q, format string, limit int) int {
	formatter, err := output.New(format, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result, err := engine.Filter(q)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for _, o := range result.Skipped() {
		logger.Debug("condition skipped", "outcome", o.String())
	}

	records := result.Records
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if err := formatter.Format(result.Columns, records); err != nil {
		fmt.Fprintf(stderr, "Error formatting output: %v\n", err)
		return 1
	}
	return 0
}

// printColumns writes the identifier and metric names, one per record
func printColumns(stdout, stderr io.Writer, engine *query.Engine, format string) int {
	formatter, err := output.New(format, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	header := []string{"column"}
	columns := engine.Schema().Columns()
	records := make([]query.Record, 0, len(columns))
	for _, c := range columns {
		records = append(records, query.NewRecord(c, header, []query.Value{{Text: c, IsText: true}}))
	}

	if err := formatter.Format(header, records); err != nil {
		fmt.Fprintf(stderr, "Error formatting output: %v\n", err)
		return 1
	}
	return 0
}
