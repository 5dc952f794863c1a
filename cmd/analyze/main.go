package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"sellerpulse/internal/config"
	"sellerpulse/internal/currency"
	"sellerpulse/internal/dataprocessing"
	"sellerpulse/internal/files"
	"sellerpulse/internal/infrastructure"
	"sellerpulse/internal/products"
	"sellerpulse/internal/services"
	"sellerpulse/internal/storage"
	"sellerpulse/pkg/contracts/domain"
)

// options are the parsed command line flags
type options struct {
	In          string
	DB          string
	StartDate   string
	EndDate     string
	Marketplace string
	Fulfillment string
	Compare     string
}

// Rejection names a workbook that was not ingested and why
type Rejection struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Output is what analyze prints
type Output struct {
	Files      []*services.IngestResult  `json:"files"`
	Rejected   []Rejection               `json:"rejected,omitempty"`
	Analytics  *domain.DetailedAnalytics `json:"analytics"`
	Comparison *domain.Comparison        `json:"comparison,omitempty"`
}

func main() {
	var opts options
	flag.StringVar(&opts.In, "in", "", "transaction report (.xlsx) or a directory of them")
	flag.StringVar(&opts.DB, "db", ":memory:", "SQLite database to ingest into")
	flag.StringVar(&opts.StartDate, "start", "", "first day of the report (YYYY-MM-DD)")
	flag.StringVar(&opts.EndDate, "end", "", "last day of the report (YYYY-MM-DD)")
	flag.StringVar(&opts.Marketplace, "marketplace", "all", "marketplace code, or all")
	flag.StringVar(&opts.Fulfillment, "fulfillment", "", "FBA, FBM or empty for both")
	flag.StringVar(&opts.Compare, "compare", "", "previous-period or previous-year")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	// stdout carries the JSON result, so logs go to stderr
	logger := infrastructure.NewLogger(cfg.Logging, os.Stderr)

	if opts.In == "" {
		fmt.Fprintln(os.Stderr, "analyze: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), cfg, opts, os.Stdout, logger); err != nil {
		logger.Error("Analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run ingests every workbook under opts.In and writes the report as JSON
// to w. Workbooks are parsed concurrently and committed in name order.
func run(ctx context.Context, cfg *config.Config, opts options, w io.Writer, logger *slog.Logger) error {
	workbooks, err := files.FindWorkbooks(opts.In)
	if err != nil {
		return err
	}
	if len(workbooks) == 0 {
		return fmt.Errorf("no %s files found in %s", files.WorkbookExt, opts.In)
	}
	logger.Info("Workbooks discovered",
		slog.Int("count", len(workbooks)),
		slog.Int64("bytes", files.TotalSize(workbooks)),
		slog.String("input", opts.In))

	if opts.DB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.DB), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := storage.OpenSQLite(ctx, opts.DB, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ingest := services.NewIngestService(store, cfg.Ingest, nil, logger)
	reports := services.NewReportService(store,
		products.NewClient(products.ClientConfig{
			URL:      cfg.Products.URL,
			Timeout:  cfg.Products.Timeout,
			CacheTTL: cfg.Products.CacheTTL,
			Logger:   logger,
		}),
		currency.NewProvider(currency.ProviderConfig{
			URL:      cfg.Currency.RatesURL,
			Timeout:  cfg.Currency.Timeout,
			CacheTTL: cfg.Currency.CacheTTL,
			Cache:    store,
			Logger:   logger,
		}),
		cfg.Analytics, nil, logger)
	ingest.OnCommit(reports.Invalidate)

	filters, err := services.NormalizeFilters(domain.Filters{
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		Marketplace: opts.Marketplace,
		Fulfillment: domain.Fulfillment(opts.Fulfillment),
	})
	if err != nil {
		return err
	}

	parsed := parseAll(ctx, ingest, workbooks)

	out := Output{Files: []*services.IngestResult{}}
	for i, p := range parsed {
		if p.err != nil {
			out.Rejected = append(out.Rejected, Rejection{File: workbooks[i].Name, Error: p.err.Error()})
			continue
		}
		result, err := ingest.Commit(ctx, p.file)
		if err != nil {
			out.Rejected = append(out.Rejected, Rejection{File: p.file.Name, Error: err.Error()})
			continue
		}
		out.Files = append(out.Files, result)
	}
	if len(out.Files) == 0 {
		return fmt.Errorf("all %d workbooks were rejected", len(workbooks))
	}

	out.Analytics, err = reports.Report(ctx, filters)
	if err != nil {
		return err
	}
	if opts.Compare != "" {
		out.Comparison, err = reports.Compare(ctx, filters, domain.ComparisonMode(opts.Compare))
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type parseResult struct {
	file *dataprocessing.ParsedFile
	err  error
}

// parseAll reads every workbook concurrently. A rejected workbook does not
// stop the others.
func parseAll(ctx context.Context, ingest *services.IngestService, workbooks []files.FileInfo) []parseResult {
	results := make([]parseResult, len(workbooks))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, wb := range workbooks {
		g.Go(func() error {
			f, err := os.Open(wb.Path)
			if err != nil {
				results[i].err = err
				return nil
			}
			defer f.Close()
			results[i].file, results[i].err = ingest.Parse(ctx, wb.Name, f, "")
			return nil
		})
	}
	_ = g.Wait()
	return results
}
