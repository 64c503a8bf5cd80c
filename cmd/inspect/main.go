// Command inspect runs data-integrity checks against an accidents CSV
// before it is committed to a full analysis run: column inventory,
// missing-value statistics, range checks, a reservoir sample preview, and a
// memory-footprint estimate.
//
// Usage:
//
//	go run ./cmd/inspect -data data/US_Accidents.csv -sample 5
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
	"github.com/roadmetrics/accident-risk/internal/config"
	"github.com/roadmetrics/accident-risk/internal/domain"
	"github.com/roadmetrics/accident-risk/internal/loader"
	"github.com/roadmetrics/accident-risk/internal/observability"
)

// phase tracks findings for one inspection phase. Findings are informative;
// only load-level failures are fatal.
type phase struct {
	name     string
	findings []string
}

func (p *phase) notef(format string, args ...any) {
	p.findings = append(p.findings, fmt.Sprintf(format, args...))
}

func (p *phase) clean() bool { return len(p.findings) == 0 }

func main() {
	dataPath := flag.String("data", "", "path to the accidents CSV file (required)")
	sampleN := flag.Int("sample", 5, "number of sample rows to preview")
	flag.Parse()

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -data flag")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if code := run(ctx, *dataPath, *sampleN); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, dataPath string, sampleN int) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if sampleN > cfg.SampleRows {
		sampleN = cfg.SampleRows
	}

	l, err := loader.New(dataPath, duck.Options{
		Threads:     cfg.DuckDBThreads,
		MemoryLimit: cfg.DuckDBMemoryLimit,
	}, logger, metrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open dataset: %v\n", err)
		return 1
	}

	fmt.Println("=== Accident Data Integrity Inspection ===")
	fmt.Println()

	cols, err := l.DescribeColumns(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: probe schema: %v\n", err)
		return 1
	}

	report, err := l.Validate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: validate dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		inspectColumns(cols),
		inspectMissing(report),
		inspectRanges(report),
	}

	printColumns(cols)
	printValidation(report)
	printSample(ctx, l, sampleN)
	printMemory(l)

	// ── Report results ──
	fmt.Println()
	for _, p := range phases {
		status := "\033[32mOK\033[0m"
		if !p.clean() {
			status = fmt.Sprintf("\033[33m%d finding(s)\033[0m", len(p.findings))
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.clean() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, f := range p.findings {
			fmt.Printf("  [%d] %s\n", i+1, f)
		}
	}

	fmt.Printf("\nInspected %d rows across %d columns.\n", report.TotalRows, len(cols))
	return 0
}

// ── Phase 1: Column Inventory ──

func inspectColumns(cols []loader.ColumnInfo) *phase {
	p := &phase{name: "Phase 1: Column Inventory"}

	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c.Name] = true
	}
	for _, key := range loader.KeyColumns {
		if !present[key] {
			p.notef("key column %q absent from source schema", key)
		}
	}
	return p
}

// ── Phase 2: Missing Values ──

func inspectMissing(r *loader.ValidationReport) *phase {
	p := &phase{name: "Phase 2: Missing Values"}

	for _, mv := range r.MissingValues {
		if mv.Count > 0 {
			p.notef("%s: %d missing (%.2f%%)", mv.Column, mv.Count, mv.Percentage)
		}
	}
	for _, u := range r.Unavailable {
		p.notef("check unavailable: %s (%s)", u.Check, u.Reason)
	}
	return p
}

// ── Phase 3: Value Ranges ──

func inspectRanges(r *loader.ValidationReport) *phase {
	p := &phase{name: "Phase 3: Value Ranges"}

	if sr := r.SeverityRange; sr != nil {
		if sr.Min < 1 || sr.Max > 4 {
			p.notef("severity outside expected 1-4 range: min=%d max=%d", sr.Min, sr.Max)
		}
	}
	if dr := r.DateRange; dr != nil {
		if dr.Max.Before(dr.Min) {
			p.notef("date range inverted: %s after %s", dr.Min, dr.Max)
		}
	}
	if us := r.UniqueStates; us != nil && *us > 51 {
		p.notef("%d distinct states (more than 50 states + DC)", *us)
	}
	return p
}

// ── Printing ──

func printColumns(cols []loader.ColumnInfo) {
	fmt.Printf("Columns (%d):\n", len(cols))
	for _, c := range cols {
		fmt.Printf("  %-24s %s\n", c.Name, c.Type)
	}
	fmt.Println()
}

func printValidation(r *loader.ValidationReport) {
	fmt.Printf("Total rows: %d\n", r.TotalRows)
	if dr := r.DateRange; dr != nil {
		fmt.Printf("Date range: %s to %s\n",
			dr.Min.Format("2006-01-02"), dr.Max.Format("2006-01-02"))
	}
	if sr := r.SeverityRange; sr != nil {
		fmt.Printf("Severity:   %d to %d (%d distinct)\n", sr.Min, sr.Max, sr.Distinct)
	}
	if us := r.UniqueStates; us != nil {
		fmt.Printf("States:     %d distinct\n", *us)
	}
	fmt.Println()
}

func printSample(ctx context.Context, l *loader.Loader, n int) {
	sample, err := l.Sample(ctx, n)
	if err != nil {
		fmt.Printf("Sample unavailable: %v\n\n", err)
		return
	}

	fmt.Printf("Sample (%d rows):\n", sample.NumRows())
	for _, row := range sample.Rows {
		fmt.Printf("  %s\n", formatRow(sample, row))
	}
	fmt.Println()
}

// formatRow prints the key columns when present, else the first few cells.
func formatRow(t domain.Table, row []any) string {
	var parts []string
	for _, col := range loader.KeyColumns {
		if idx, err := t.ColumnIndex(col); err == nil {
			parts = append(parts, fmt.Sprintf("%s=%v", col, row[idx]))
		}
	}
	if len(parts) == 0 {
		for i, cell := range row {
			if i >= 4 {
				break
			}
			parts = append(parts, fmt.Sprintf("%s=%v", t.Columns[i], cell))
		}
	}
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "  "
		}
		s += p
	}
	return s
}

func printMemory(l *loader.Loader) {
	est, err := l.EstimateMemory()
	if err != nil {
		fmt.Printf("Memory estimate unavailable: %v\n", err)
		return
	}
	fmt.Printf("File size: %.1f MB, estimated footprint: %.1f MB, recommended strategy: %s\n",
		est.FileSizeMB, est.EstimatedMemoryMB, est.Recommended)
}
