package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
	"github.com/roadmetrics/accident-risk/internal/analysis"
	"github.com/roadmetrics/accident-risk/internal/config"
	"github.com/roadmetrics/accident-risk/internal/loader"
	"github.com/roadmetrics/accident-risk/internal/observability"
)

const testData = `ID,Start_Time,State,Severity,Weather_Condition
A-1,2021-01-04 07:15:00,CA,3,Clear
A-2,2021-01-05 08:30:00,CA,2,Rain
A-3,2021-03-01 16:00:00,TX,4,Clear
A-4,2021-07-04 20:45:00,TX,2,Snow
A-5,2022-12-01 06:00:00,NY,1,Fog
`

func newTestApp(t *testing.T) *app {
	t.Helper()

	dataPath := filepath.Join(t.TempDir(), "accidents.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(testData), 0o644))

	l, err := loader.New(dataPath, duck.Options{}, slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	a := &app{
		cfg:       &config.Config{TopWeatherLimit: 5},
		logger:    slog.Default(),
		analyzer:  analysis.New(l, slog.Default(), observability.NewMetricsForTesting(), nil),
		kind:      "all",
		levels:    []string{"State", "Severity"},
		outputDir: filepath.Join(t.TempDir(), "outputs"),
	}
	t.Cleanup(func() { _ = a.analyzer.Close() })
	return a
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return err == nil
}

func TestRunSummaryOnlySkipsAnalyses(t *testing.T) {
	a := newTestApp(t)
	a.summary = true

	require.NoError(t, a.run(context.Background()))

	assert.True(t, exists(t, filepath.Join(a.outputDir, "summary_report.json")))

	// Summary mode is standalone: none of the per-analysis exports run.
	for _, name := range []string{
		"risk_metrics.csv", "state_risk_rates.csv", "detailed_risk.csv",
		"annual_state_totals.csv", "temporal_hourly.csv",
		"weather_analysis.csv", "severity_trends.csv",
	} {
		assert.False(t, exists(t, filepath.Join(a.outputDir, name)), "%s must not be written", name)
	}
}

func TestRunRiskWritesRiskExports(t *testing.T) {
	a := newTestApp(t)
	a.kind = "risk"

	require.NoError(t, a.run(context.Background()))

	for _, name := range []string{
		"risk_metrics.csv", "state_risk_rates.csv", "detailed_risk.csv", "annual_state_totals.csv",
	} {
		assert.True(t, exists(t, filepath.Join(a.outputDir, name)), "%s missing", name)
	}
	assert.False(t, exists(t, filepath.Join(a.outputDir, "summary_report.json")))
}

func TestSplitLevels(t *testing.T) {
	assert.Equal(t, []string{"State", "Severity"}, splitLevels("State, Severity"))
	assert.Equal(t, []string{"City"}, splitLevels(",City,,"))
	assert.Empty(t, splitLevels(""))
}
