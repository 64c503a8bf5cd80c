// Package analysis translates high-level risk questions into grouped
// aggregations over the loaded accident relation. The Analyzer owns a single
// dataset handle, loaded lazily on first use and held until Close.
package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
	"github.com/roadmetrics/accident-risk/internal/domain"
	"github.com/roadmetrics/accident-risk/internal/loader"
	"github.com/roadmetrics/accident-risk/internal/observability"
)

// Analyzer computes accident risk metrics. Not safe for concurrent use: each
// Analyzer exclusively owns its dataset handle. Independent Analyzers may
// load their own handles side by side.
type Analyzer struct {
	loader  *loader.Loader
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	// nil until the first data-needing operation; reset to nil by Close.
	ds     *loader.Dataset
	schema map[string]string
}

// New creates an Analyzer over the given loader. Pass a nil clock to use
// real time.
func New(l *loader.Loader, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Analyzer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Analyzer{loader: l, logger: logger, metrics: metrics, clock: clock}
}

// ensureLoaded performs the one-way unloaded-to-loaded transition. Loading
// failures leave no partial state behind.
func (a *Analyzer) ensureLoaded(ctx context.Context) error {
	if a.ds != nil {
		return nil
	}

	ds, err := a.loader.Load(ctx, loader.DefaultTable)
	if err != nil {
		return err
	}

	schema, err := tableSchema(ctx, ds)
	if err != nil {
		ds.Close()
		return err
	}

	a.ds = ds
	a.schema = schema
	return nil
}

// Close releases the dataset handle and returns the Analyzer to the unloaded
// state, so a later operation reloads from source.
func (a *Analyzer) Close() error {
	if a.ds == nil {
		return nil
	}
	err := a.ds.Close()
	a.ds = nil
	a.schema = nil
	a.metrics.DatasetReady.Set(0)
	return err
}

// CheckReadiness reports whether the dataset is loaded and queryable.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	if a.ds == nil {
		return fmt.Errorf("dataset not loaded yet")
	}
	return nil
}

// DatasetStatus describes the analyzer's load state for operational
// endpoints.
type DatasetStatus struct {
	Loaded  bool   `json:"loaded"`
	Table   string `json:"table,omitempty"`
	Columns int    `json:"columns,omitempty"`
}

// Status reports the current load state without touching the engine.
func (a *Analyzer) Status() DatasetStatus {
	if a.ds == nil {
		return DatasetStatus{}
	}
	return DatasetStatus{Loaded: true, Table: a.ds.Table, Columns: len(a.schema)}
}

func tableSchema(ctx context.Context, ds *loader.Dataset) (map[string]string, error) {
	rows, err := ds.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT column_name, column_type FROM (DESCRIBE %s)", duck.QuoteIdent(ds.Table)))
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", ds.Table, err)
	}
	defer rows.Close()

	schema := make(map[string]string)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("describe %s: %w", ds.Table, err)
		}
		schema[name] = typ
	}
	return schema, rows.Err()
}

// observe records query metrics for one aggregation call.
func (a *Analyzer) observe(kind string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.metrics.QueriesTotal.WithLabelValues(kind, outcome).Inc()
	if err == nil {
		a.metrics.QueryDuration.WithLabelValues(kind).Observe(seconds)
	}
}

// query runs one aggregation statement and hands the rows to scan. It wraps
// engine-level failures in a *QueryError carrying the analysis kind.
func (a *Analyzer) query(ctx context.Context, kind, stmt string, scan func(*sql.Rows) error) error {
	if err := a.ensureLoaded(ctx); err != nil {
		return err
	}

	start := a.clock.Now()
	rows, err := a.ds.DB.QueryContext(ctx, stmt)
	if err != nil {
		a.observe(kind, 0, err)
		return &QueryError{Op: kind, Err: err}
	}
	defer rows.Close()

	if err := scan(rows); err != nil {
		a.observe(kind, 0, err)
		return &QueryError{Op: kind, Err: err}
	}

	elapsed := a.clock.Since(start).Seconds()
	a.observe(kind, elapsed, nil)
	a.logger.Debug("aggregation complete", "kind", kind, "seconds", elapsed)
	return nil
}

// ComputeRisk groups accident counts and mean severity by the requested
// dimensions. A derived year field always leads the grouping; weather and
// month/hour derived fields are folded in per the flags. Rows with a null
// timestamp, null or empty state, or null severity are excluded. Output is
// ordered by year ascending, then count descending.
func (a *Analyzer) ComputeRisk(ctx context.Context, dims []string, includeWeather, includeTime bool) (domain.Table, error) {
	if err := a.ensureLoaded(ctx); err != nil {
		return domain.Table{}, err
	}

	plan, err := buildRiskPlan(dims, includeWeather, includeTime, a.schema)
	if err != nil {
		a.observe("compute_risk", 0, err)
		return domain.Table{}, err
	}

	var t domain.Table
	err = a.query(ctx, "compute_risk", plan.SQL(a.ds.Table), func(rows *sql.Rows) error {
		var scanErr error
		t, scanErr = duck.ScanTable(rows)
		return scanErr
	})
	if err != nil {
		return domain.Table{}, err
	}
	return t, nil
}

// StateRiskRates computes, per (year, state), the total accident count, the
// severe count (severity >= 3), and the severe rate as a percentage of the
// state's total for that year.
func (a *Analyzer) StateRiskRates(ctx context.Context) ([]domain.StateRate, error) {
	stmt := fmt.Sprintf(`SELECT
		EXTRACT(year FROM Start_Time::TIMESTAMP) AS year,
		State,
		COUNT(*) AS total_accidents,
		COUNT(CASE WHEN Severity >= 3 THEN 1 END) AS severe_accidents,
		COUNT(CASE WHEN Severity >= 3 THEN 1 END) * 100.0 / COUNT(*) AS severe_accident_rate
	FROM %s
	WHERE Start_Time IS NOT NULL
		AND State IS NOT NULL AND State != ''
		AND Severity IS NOT NULL
	GROUP BY year, State
	ORDER BY year, total_accidents DESC`, a.table())

	var out []domain.StateRate
	err := a.query(ctx, "state_risk_rates", stmt, func(rows *sql.Rows) error {
		for rows.Next() {
			var r domain.StateRate
			var year int64
			if err := rows.Scan(&year, &r.State, &r.TotalAccidents, &r.SevereAccidents, &r.SevereAccidentRate); err != nil {
				return err
			}
			r.Year = int(year)
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WeatherRisk computes, per (state, weather condition), the accident count,
// mean severity, share of the state total, and the within-state rank by
// descending count (rank 1 = most common).
func (a *Analyzer) WeatherRisk(ctx context.Context) ([]domain.WeatherRisk, error) {
	stmt := fmt.Sprintf(`SELECT
		State,
		Weather_Condition,
		COUNT(*) AS accident_count,
		AVG(Severity) AS avg_severity,
		COUNT(*) * 100.0 / SUM(COUNT(*)) OVER (PARTITION BY State) AS state_percentage,
		ROW_NUMBER() OVER (PARTITION BY State ORDER BY COUNT(*) DESC) AS weather_rank
	FROM %s
	WHERE State IS NOT NULL AND State != ''
		AND Weather_Condition IS NOT NULL AND Weather_Condition != ''
		AND Severity IS NOT NULL
	GROUP BY State, Weather_Condition
	ORDER BY State, accident_count DESC`, a.table())

	var out []domain.WeatherRisk
	err := a.query(ctx, "weather_risk", stmt, func(rows *sql.Rows) error {
		for rows.Next() {
			var r domain.WeatherRisk
			var rank int64
			if err := rows.Scan(&r.State, &r.WeatherCondition, &r.AccidentCount, &r.AvgSeverity, &r.StatePercentage, &rank); err != nil {
				return err
			}
			r.WeatherRank = int(rank)
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SummaryReport produces the top-level dataset report: totals, date span,
// state coverage, top-10 states, and the severity distribution.
func (a *Analyzer) SummaryReport(ctx context.Context) (*domain.Summary, error) {
	if err := a.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s := &domain.Summary{GeneratedAt: a.clock.Now().UTC()}
	tbl := a.table()

	err := a.query(ctx, "summary_report",
		fmt.Sprintf("SELECT COUNT(*) FROM %s", tbl),
		func(rows *sql.Rows) error {
			if rows.Next() {
				if err := rows.Scan(&s.TotalAccidents); err != nil {
					return err
				}
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	err = a.query(ctx, "summary_report",
		fmt.Sprintf(`SELECT MIN(Start_Time::TIMESTAMP), MAX(Start_Time::TIMESTAMP)
			FROM %s WHERE Start_Time IS NOT NULL`, tbl),
		func(rows *sql.Rows) error {
			if rows.Next() {
				var minT, maxT sql.NullTime
				if err := rows.Scan(&minT, &maxT); err != nil {
					return err
				}
				if minT.Valid && maxT.Valid {
					s.DateRange = domain.DateSpan{Start: minT.Time, End: maxT.Time}
				}
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	err = a.query(ctx, "summary_report",
		fmt.Sprintf(`SELECT COUNT(DISTINCT State) FROM %s
			WHERE State IS NOT NULL AND State != ''`, tbl),
		func(rows *sql.Rows) error {
			if rows.Next() {
				var n int64
				if err := rows.Scan(&n); err != nil {
					return err
				}
				s.StatesCovered = int(n)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	err = a.query(ctx, "summary_report",
		fmt.Sprintf(`SELECT State, COUNT(*) AS accidents FROM %s
			WHERE State IS NOT NULL AND State != ''
			GROUP BY State ORDER BY accidents DESC LIMIT 10`, tbl),
		func(rows *sql.Rows) error {
			for rows.Next() {
				var sc domain.StateCount
				if err := rows.Scan(&sc.State, &sc.Count); err != nil {
					return err
				}
				s.TopStates = append(s.TopStates, sc)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	err = a.query(ctx, "summary_report",
		fmt.Sprintf(`SELECT Severity, COUNT(*) AS count,
			COUNT(*) * 100.0 / SUM(COUNT(*)) OVER () AS percentage
			FROM %s WHERE Severity IS NOT NULL
			GROUP BY Severity ORDER BY Severity`, tbl),
		func(rows *sql.Rows) error {
			for rows.Next() {
				var share domain.SeverityShare
				var sev int64
				if err := rows.Scan(&sev, &share.Count, &share.Percentage); err != nil {
					return err
				}
				share.Severity = int(sev)
				s.SeverityDistribution = append(s.SeverityDistribution, share)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// table returns the quoted relation name. The Analyzer always loads into
// the loader's default table, so this is valid even before the first load.
func (a *Analyzer) table() string {
	return duck.QuoteIdent(loader.DefaultTable)
}
