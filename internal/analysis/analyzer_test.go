package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
	"github.com/roadmetrics/accident-risk/internal/analysis"
	"github.com/roadmetrics/accident-risk/internal/domain"
	"github.com/roadmetrics/accident-risk/internal/loader"
	"github.com/roadmetrics/accident-risk/internal/observability"
)

// --- fixture ---

// fixtureCSV is a hand-built dataset with known aggregates:
//
//	CA 2021: 10 rows, 3 severe (rate 30.0); weather Clear 6, Rain 4
//	TX 2021:  5 rows, 1 severe (rate 20.0); weather Clear 5
//	CA 2022:  4 rows, 0 severe (rate  0.0); weather Snow 3, Fog 1
//
// Plus one row with an empty state and one with an empty severity and
// weather, which the risk filters must exclude. 21 rows in total.
func fixtureCSV(t *testing.T) string {
	t.Helper()

	var b []byte
	b = append(b, "ID,Start_Time,State,Severity,Weather_Condition\n"...)

	row := func(id int, ts, state, severity, weather string) {
		b = append(b, fmt.Sprintf("A-%d,%s,%s,%s,%s\n", id, ts, state, severity, weather)...)
	}

	// CA 2021: severities 3,4,3 severe; 2x7 non-severe. Hours span all
	// time-of-day buckets; months span Winter and Summer.
	row(1, "2021-01-04 07:15:00", "CA", "3", "Clear")
	row(2, "2021-01-05 08:30:00", "CA", "4", "Rain")
	row(3, "2021-01-06 15:00:00", "CA", "3", "Clear")
	row(4, "2021-07-04 20:45:00", "CA", "2", "Clear")
	row(5, "2021-07-05 02:10:00", "CA", "2", "Rain")
	row(6, "2021-07-06 07:00:00", "CA", "1", "Clear")
	row(7, "2021-07-07 12:30:00", "CA", "2", "Rain")
	row(8, "2021-07-08 18:05:00", "CA", "2", "Clear")
	row(9, "2021-07-09 23:55:00", "CA", "1", "Rain")
	row(10, "2021-07-10 09:20:00", "CA", "2", "Clear")

	// TX 2021: one severe.
	row(11, "2021-03-01 07:00:00", "TX", "3", "Clear")
	row(12, "2021-03-02 08:00:00", "TX", "2", "Clear")
	row(13, "2021-03-03 16:00:00", "TX", "2", "Clear")
	row(14, "2021-03-04 17:30:00", "TX", "1", "Clear")
	row(15, "2021-03-05 21:00:00", "TX", "2", "Clear")

	// CA 2022: no severe rows.
	row(16, "2022-12-01 06:00:00", "CA", "2", "Snow")
	row(17, "2022-12-02 10:00:00", "CA", "2", "Snow")
	row(18, "2022-12-03 14:00:00", "CA", "1", "Snow")
	row(19, "2022-12-04 19:00:00", "CA", "2", "Fog")

	// Excluded by the risk filters: empty state, then empty severity.
	row(20, "2021-05-01 11:00:00", "", "2", "Clear")
	row(21, "2021-05-02 11:30:00", "CA", "", "")

	path := filepath.Join(t.TempDir(), "accidents.csv")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T) *analysis.Analyzer {
	t.Helper()

	l, err := loader.New(fixtureCSV(t), duck.Options{}, slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	a := analysis.New(l, slog.Default(), observability.NewMetricsForTesting(),
		clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// --- ComputeRisk ---

func TestComputeRiskGroupsByYearAndDimensions(t *testing.T) {
	a := newTestAnalyzer(t)

	tbl, err := a.ComputeRisk(context.Background(), []string{"State", "Severity"}, false, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "State", "Severity", "accident_count", "avg_severity"}, tbl.Columns)

	countIdx, err := tbl.ColumnIndex("accident_count")
	require.NoError(t, err)

	// Grouping tuples are distinct and their counts sum to the filtered row
	// count (19 of 21 rows pass the risk filters).
	seen := map[string]bool{}
	var total int64
	for _, row := range tbl.Rows {
		key := fmt.Sprintf("%v|%v|%v", row[0], row[1], row[2])
		assert.False(t, seen[key], "duplicate grouping tuple %s", key)
		seen[key] = true
		total += row[countIdx].(int64)
	}
	assert.Equal(t, int64(19), total)
}

func TestComputeRiskWeatherNotDuplicated(t *testing.T) {
	a := newTestAnalyzer(t)

	tbl, err := a.ComputeRisk(context.Background(), []string{"Weather_Condition"}, true, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "Weather_Condition", "accident_count", "avg_severity"}, tbl.Columns)
}

func TestComputeRiskIncludeTimeAppendsMonthAndHour(t *testing.T) {
	a := newTestAnalyzer(t)

	tbl, err := a.ComputeRisk(context.Background(), []string{"State"}, false, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "State", "month", "hour", "accident_count", "avg_severity"}, tbl.Columns)
}

func TestComputeRiskUnknownColumn(t *testing.T) {
	a := newTestAnalyzer(t)

	_, err := a.ComputeRisk(context.Background(), []string{"No_Such_Column"}, false, false)
	require.Error(t, err)

	var qerr *analysis.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "No_Such_Column", qerr.Column)
	assert.Contains(t, err.Error(), "No_Such_Column")
}

func TestComputeRiskIsIdempotent(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	first, err := a.ComputeRisk(ctx, []string{"State"}, false, false)
	require.NoError(t, err)
	second, err := a.ComputeRisk(ctx, []string{"State"}, false, false)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated aggregation differs (-first +second):\n%s", diff)
	}
}

// --- StateRiskRates ---

func TestStateRiskRates(t *testing.T) {
	a := newTestAnalyzer(t)

	rates, err := a.StateRiskRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 3)

	byKey := map[string]domain.StateRate{}
	for _, r := range rates {
		byKey[fmt.Sprintf("%d|%s", r.Year, r.State)] = r

		assert.GreaterOrEqual(t, r.SevereAccidentRate, 0.0)
		assert.LessOrEqual(t, r.SevereAccidentRate, 100.0)
		assert.LessOrEqual(t, r.SevereAccidents, r.TotalAccidents)
	}

	ca21 := byKey["2021|CA"]
	assert.Equal(t, int64(10), ca21.TotalAccidents)
	assert.Equal(t, int64(3), ca21.SevereAccidents)
	assert.InDelta(t, 30.0, ca21.SevereAccidentRate, 1e-9)

	tx21 := byKey["2021|TX"]
	assert.Equal(t, int64(5), tx21.TotalAccidents)
	assert.InDelta(t, 20.0, tx21.SevereAccidentRate, 1e-9)

	ca22 := byKey["2022|CA"]
	assert.Equal(t, int64(4), ca22.TotalAccidents)
	assert.Zero(t, ca22.SevereAccidents)
	assert.InDelta(t, 0.0, ca22.SevereAccidentRate, 1e-9)
}

// --- WeatherRisk ---

func TestWeatherRisk(t *testing.T) {
	a := newTestAnalyzer(t)

	risks, err := a.WeatherRisk(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, risks)

	byState := map[string][]domain.WeatherRisk{}
	for _, r := range risks {
		byState[r.State] = append(byState[r.State], r)
	}

	t.Run("ranks are a permutation per state", func(t *testing.T) {
		for state, rows := range byState {
			want := make([]int, len(rows))
			got := make([]int, 0, len(rows))
			for i, r := range rows {
				want[i] = i + 1
				got = append(got, r.WeatherRank)
			}
			assert.ElementsMatch(t, want, got, "state %s", state)
		}
	})

	t.Run("state percentages sum to 100", func(t *testing.T) {
		for state, rows := range byState {
			var sum float64
			for _, r := range rows {
				sum += r.StatePercentage
			}
			assert.InDelta(t, 100.0, sum, 1e-6, "state %s", state)
		}
	})

	t.Run("most common condition ranks first", func(t *testing.T) {
		for _, r := range byState["CA"] {
			if r.WeatherRank == 1 {
				assert.Equal(t, "Clear", r.WeatherCondition)
			}
		}
	})
}

// --- TemporalPatterns ---

func TestTemporalPatterns(t *testing.T) {
	a := newTestAnalyzer(t)

	tp, err := a.TemporalPatterns(context.Background())
	require.NoError(t, err)

	// All 21 rows carry a timestamp, so every breakdown covers them all.
	sumHourly := int64(0)
	lastHour := -1
	for _, p := range tp.Hourly {
		assert.Greater(t, p.Hour, lastHour, "hours not ascending")
		lastHour = p.Hour
		sumHourly += p.AccidentCount
	}
	assert.Equal(t, int64(21), sumHourly)

	sumSeasonal := int64(0)
	lastCount := int64(1 << 62)
	for _, p := range tp.Seasonal {
		assert.LessOrEqual(t, p.AccidentCount, lastCount, "seasonal not count-descending")
		lastCount = p.AccidentCount
		sumSeasonal += p.AccidentCount
	}
	assert.Equal(t, int64(21), sumSeasonal)

	for _, p := range tp.Daily {
		assert.GreaterOrEqual(t, p.DayOfWeek, 0)
		assert.LessOrEqual(t, p.DayOfWeek, 6)
	}
	for _, p := range tp.Monthly {
		assert.GreaterOrEqual(t, p.Month, 1)
		assert.LessOrEqual(t, p.Month, 12)
	}

	seasons := map[string]int64{}
	for _, p := range tp.Seasonal {
		seasons[p.Season] = p.AccidentCount
	}
	// Jan 2021 (3) + Dec 2022 (4) fall in Winter; Jul 2021 (7) in Summer.
	assert.Equal(t, int64(7), seasons["Winter"])
	assert.Equal(t, int64(7), seasons["Summer"])
}

// --- SummaryReport ---

func TestSummaryReport(t *testing.T) {
	a := newTestAnalyzer(t)

	s, err := a.SummaryReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(21), s.TotalAccidents)
	assert.Equal(t, 2, s.StatesCovered)
	assert.Equal(t, fixedNow, s.GeneratedAt)

	assert.Equal(t, 2021, s.DateRange.Start.Year())
	assert.Equal(t, 2022, s.DateRange.End.Year())

	require.NotEmpty(t, s.TopStates)
	assert.Equal(t, "CA", s.TopStates[0].State)
	assert.Equal(t, int64(15), s.TopStates[0].Count)

	var pctSum float64
	lastSev := 0
	for _, share := range s.SeverityDistribution {
		assert.Greater(t, share.Severity, lastSev, "severities not ascending")
		lastSev = share.Severity
		pctSum += share.Percentage
	}
	assert.InDelta(t, 100.0, pctSum, 1e-6)
}

// --- supplemental aggregations ---

func TestSeverityTrendsPercentagesSumPerYear(t *testing.T) {
	a := newTestAnalyzer(t)

	trends, err := a.SeverityTrends(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, trends)

	perYear := map[int]float64{}
	for _, tr := range trends {
		perYear[tr.Year] += tr.Percentage
	}
	for year, sum := range perYear {
		assert.InDelta(t, 100.0, sum, 1e-6, "year %d", year)
	}
}

func TestAnnualStateTotals(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	totals, err := a.AnnualStateTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 3)

	byKey := map[string]int64{}
	for _, st := range totals {
		byKey[fmt.Sprintf("%d|%s", st.Year, st.State)] = st.TotalAccidents
	}

	// Totals filter only on state and timestamp, so the CA 2021 row with a
	// null severity counts here even though the risk rates exclude it.
	assert.Equal(t, int64(11), byKey["2021|CA"])
	assert.Equal(t, int64(5), byKey["2021|TX"])
	assert.Equal(t, int64(4), byKey["2022|CA"])

	rates, err := a.StateRiskRates(ctx)
	require.NoError(t, err)
	for _, r := range rates {
		assert.GreaterOrEqual(t, byKey[fmt.Sprintf("%d|%s", r.Year, r.State)], r.TotalAccidents,
			"totals undercount %d %s", r.Year, r.State)
	}
}

func TestTopWeatherByState(t *testing.T) {
	a := newTestAnalyzer(t)

	t.Run("respects the limit", func(t *testing.T) {
		top, err := a.TopWeatherByState(context.Background(), 1)
		require.NoError(t, err)

		perState := map[string]int{}
		for _, c := range top {
			perState[c.State]++
		}
		for state, n := range perState {
			assert.Equal(t, 1, n, "state %s", state)
		}
		// CA's single entry must be its most common condition.
		for _, c := range top {
			if c.State == "CA" {
				assert.Equal(t, "Clear", c.WeatherCondition)
				assert.Equal(t, int64(6), c.AccidentCount)
			}
		}
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := a.TopWeatherByState(context.Background(), 0)
		var qerr *analysis.QueryError
		require.ErrorAs(t, err, &qerr)
	})
}

func TestDetailedRiskBuckets(t *testing.T) {
	a := newTestAnalyzer(t)

	rows, err := a.DetailedRisk(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	valid := map[string]bool{"Morning": true, "Afternoon": true, "Evening": true, "Night": true}
	var total int64
	for _, r := range rows {
		assert.True(t, valid[r.TimeOfDay], "unexpected bucket %q", r.TimeOfDay)
		total += r.AccidentCount
	}
	// Rows with empty state, severity, or weather are excluded.
	assert.Equal(t, int64(19), total)
}

// --- lifecycle ---

func TestAnalyzerLifecycle(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	assert.Error(t, a.CheckReadiness(ctx), "unloaded analyzer must not report ready")
	assert.False(t, a.Status().Loaded)

	_, err := a.SummaryReport(ctx)
	require.NoError(t, err)
	assert.NoError(t, a.CheckReadiness(ctx))

	status := a.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, loader.DefaultTable, status.Table)
	assert.Equal(t, 5, status.Columns)

	require.NoError(t, a.Close())
	assert.Error(t, a.CheckReadiness(ctx), "closed analyzer must return to unloaded")

	// A later operation reloads from source.
	s, err := a.SummaryReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(21), s.TotalAccidents)
}

func TestAnalyzerLoadFailureLeavesUnloaded(t *testing.T) {
	// A directory as the source passes the existence check but always
	// fails ingestion.
	path := filepath.Join(t.TempDir(), "garbage.csv")
	require.NoError(t, os.Mkdir(path, 0o755))

	l, err := loader.New(path, duck.Options{}, slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	a := analysis.New(l, slog.Default(), observability.NewMetricsForTesting(), nil)
	_, err = a.SummaryReport(context.Background())
	require.Error(t, err)

	var lerr *loader.LoadError
	assert.True(t, errors.As(err, &lerr), "load failures surface as *loader.LoadError, got %v", err)
	assert.Error(t, a.CheckReadiness(context.Background()))
}
