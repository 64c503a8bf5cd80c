// Command accidents runs descriptive risk analyses over a US traffic
// accident CSV and exports the results as CSV tables, a JSON summary, and
// optional interactive HTML charts.
//
// Usage:
//
//	go run ./cmd/accidents \
//	  -data data/US_Accidents.csv \
//	  -analysis all \
//	  -output outputs \
//	  -visualize
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/samber/lo"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
	httpadapter "github.com/roadmetrics/accident-risk/internal/adapter/http"
	"github.com/roadmetrics/accident-risk/internal/analysis"
	"github.com/roadmetrics/accident-risk/internal/config"
	"github.com/roadmetrics/accident-risk/internal/domain"
	"github.com/roadmetrics/accident-risk/internal/loader"
	"github.com/roadmetrics/accident-risk/internal/observability"
	"github.com/roadmetrics/accident-risk/internal/report"
	"github.com/roadmetrics/accident-risk/internal/viz"
)

func main() {
	dataPath := flag.String("data", "", "path to the accidents CSV file (required)")
	analysisKind := flag.String("analysis", "all", "analysis to run: risk|temporal|weather|severity|all")
	outputDir := flag.String("output", "outputs", "directory for exported results")
	summary := flag.Bool("summary", false, "generate only the dataset summary report and exit")
	levels := flag.String("levels", "State,Severity", "comma-separated grouping columns for the risk analysis")
	visualize := flag.Bool("visualize", false, "render interactive HTML charts alongside the CSV exports")
	metricsAddr := flag.String("metrics-addr", "", "optional address for the health/metrics endpoint (e.g. :9090)")
	flag.Parse()

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -data flag")
		flag.Usage()
		os.Exit(1)
	}
	if !validAnalyses[*analysisKind] {
		fmt.Fprintf(os.Stderr, "unknown -analysis %q (want risk|temporal|weather|severity|all)\n", *analysisKind)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &app{
		cfg:       cfg,
		logger:    logger,
		kind:      *analysisKind,
		levels:    splitLevels(*levels),
		summary:   *summary,
		visualize: *visualize,
		outputDir: *outputDir,
	}

	l, err := loader.New(*dataPath, duck.Options{
		Threads:     cfg.DuckDBThreads,
		MemoryLimit: cfg.DuckDBMemoryLimit,
	}, logger, metrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open dataset: %v\n", err)
		os.Exit(1)
	}
	app.analyzer = analysis.New(l, logger, metrics, nil)
	defer app.analyzer.Close()

	if *metricsAddr != "" {
		srv := httpadapter.NewServer(*metricsAddr, app.analyzer, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	if err := app.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
}

var validAnalyses = map[string]bool{
	"risk": true, "temporal": true, "weather": true, "severity": true, "all": true,
}

func splitLevels(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Filter(parts, func(p string, _ int) bool { return p != "" })
}

type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	analyzer  *analysis.Analyzer
	kind      string
	levels    []string
	summary   bool
	visualize bool
	outputDir string
}

func (a *app) run(ctx context.Context) error {
	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// -summary is a standalone mode: it writes the summary report and
	// skips the per-analysis exports entirely.
	if a.summary {
		if err := a.runSummary(ctx); err != nil {
			return err
		}
		a.logger.Info("analysis complete", "output", a.outputDir)
		return nil
	}

	selected := func(kind string) bool { return a.kind == "all" || a.kind == kind }

	if selected("risk") {
		if err := a.runRisk(ctx); err != nil {
			return err
		}
	}
	if selected("temporal") {
		if err := a.runTemporal(ctx); err != nil {
			return err
		}
	}
	if selected("weather") {
		if err := a.runWeather(ctx); err != nil {
			return err
		}
	}
	if selected("severity") {
		if err := a.runSeverity(ctx); err != nil {
			return err
		}
	}
	if a.visualize && a.kind == "all" {
		if err := a.runSummary(ctx); err != nil {
			return err
		}
	}

	a.logger.Info("analysis complete", "output", a.outputDir)
	return nil
}

func (a *app) runRisk(ctx context.Context) error {
	a.logger.Info("running risk analysis", "levels", a.levels)

	t, err := a.analyzer.ComputeRisk(ctx, a.levels, false, false)
	if err != nil {
		return err
	}
	if err := a.writeCSV("risk_metrics.csv", t); err != nil {
		return err
	}

	rates, err := a.analyzer.StateRiskRates(ctx)
	if err != nil {
		return err
	}
	if err := a.writeCSV("state_risk_rates.csv", report.StateRatesTable(rates)); err != nil {
		return err
	}

	detailed, err := a.analyzer.DetailedRisk(ctx)
	if err != nil {
		return err
	}
	if err := a.writeCSV("detailed_risk.csv", report.DetailedRiskTable(detailed)); err != nil {
		return err
	}

	totals, err := a.analyzer.AnnualStateTotals(ctx)
	if err != nil {
		return err
	}
	return a.writeCSV("annual_state_totals.csv", report.StateTotalsTable(totals))
}

func (a *app) runTemporal(ctx context.Context) error {
	a.logger.Info("running temporal analysis")

	tp, err := a.analyzer.TemporalPatterns(ctx)
	if err != nil {
		return err
	}

	exports := []struct {
		name string
		t    domain.Table
	}{
		{"temporal_hourly.csv", report.HourlyTable(tp.Hourly)},
		{"temporal_daily.csv", report.DailyTable(tp.Daily)},
		{"temporal_monthly.csv", report.MonthlyTable(tp.Monthly)},
		{"temporal_seasonal.csv", report.SeasonalTable(tp.Seasonal)},
	}
	for _, e := range exports {
		if err := a.writeCSV(e.name, e.t); err != nil {
			return err
		}
	}

	if a.visualize {
		path := filepath.Join(a.outputDir, "temporal_patterns.html")
		if err := viz.RenderTemporalPatterns(tp, path); err != nil {
			return err
		}
		a.logger.Info("chart written", "path", path)
	}
	return nil
}

func (a *app) runWeather(ctx context.Context) error {
	a.logger.Info("running weather analysis")

	risks, err := a.analyzer.WeatherRisk(ctx)
	if err != nil {
		return err
	}
	if err := a.writeCSV("weather_analysis.csv", report.WeatherRiskTable(risks)); err != nil {
		return err
	}

	top, err := a.analyzer.TopWeatherByState(ctx, a.cfg.TopWeatherLimit)
	if err != nil {
		return err
	}
	if err := a.writeCSV("top_weather_by_state.csv", report.TopWeatherTable(top)); err != nil {
		return err
	}

	if a.visualize {
		path := filepath.Join(a.outputDir, "weather_risk.html")
		if err := viz.RenderWeatherRisk(risks, 15, path); err != nil {
			return err
		}
		a.logger.Info("chart written", "path", path)
	}
	return nil
}

func (a *app) runSeverity(ctx context.Context) error {
	a.logger.Info("running severity analysis")

	trends, err := a.analyzer.SeverityTrends(ctx)
	if err != nil {
		return err
	}
	if err := a.writeCSV("severity_trends.csv", report.SeverityTrendsTable(trends)); err != nil {
		return err
	}

	if a.visualize {
		s, err := a.analyzer.SummaryReport(ctx)
		if err != nil {
			return err
		}
		path := filepath.Join(a.outputDir, "severity_distribution.html")
		if err := viz.RenderSeverity(s, trends, path); err != nil {
			return err
		}
		a.logger.Info("chart written", "path", path)
	}
	return nil
}

func (a *app) runSummary(ctx context.Context) error {
	s, err := a.analyzer.SummaryReport(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(a.outputDir, "summary_report.json")
	if err := report.WriteSummary(path, s); err != nil {
		return err
	}
	a.logger.Info("summary written", "path", path)

	printSummary(s)

	if a.visualize {
		chartPath := filepath.Join(a.outputDir, "top_states.html")
		if err := viz.RenderTopStates(s, chartPath); err != nil {
			return err
		}
		a.logger.Info("chart written", "path", chartPath)
	}
	return nil
}

func printSummary(s *domain.Summary) {
	fmt.Println("=== Dataset Summary ===")
	fmt.Printf("Total accidents:  %d\n", s.TotalAccidents)
	if !s.DateRange.Start.IsZero() {
		fmt.Printf("Date range:       %s to %s\n",
			s.DateRange.Start.Format("2006-01-02"), s.DateRange.End.Format("2006-01-02"))
	}
	fmt.Printf("States covered:   %d\n", s.StatesCovered)
	fmt.Println("Top states:")
	for _, sc := range s.TopStates {
		fmt.Printf("  %-4s %d\n", sc.State, sc.Count)
	}
	fmt.Println("Severity distribution:")
	for _, sh := range s.SeverityDistribution {
		fmt.Printf("  %d: %d (%.1f%%)\n", sh.Severity, sh.Count, sh.Percentage)
	}
}

func (a *app) writeCSV(name string, t domain.Table) error {
	path := filepath.Join(a.outputDir, name)
	if err := report.WriteTable(path, t); err != nil {
		return err
	}
	a.logger.Info("table written", "path", path, "rows", t.NumRows())
	return nil
}
