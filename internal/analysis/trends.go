package analysis

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roadmetrics/accident-risk/internal/domain"
)

// timeOfDayExpr buckets the start hour into the fixed Morning (06-11),
// Afternoon (12-17), Evening (18-21), and Night (everything else) ranges.
const timeOfDayExpr = `CASE
	WHEN EXTRACT(hour FROM Start_Time::TIMESTAMP) BETWEEN 6 AND 11 THEN 'Morning'
	WHEN EXTRACT(hour FROM Start_Time::TIMESTAMP) BETWEEN 12 AND 17 THEN 'Afternoon'
	WHEN EXTRACT(hour FROM Start_Time::TIMESTAMP) BETWEEN 18 AND 21 THEN 'Evening'
	ELSE 'Night'
END`

// SeverityTrends computes, per (year, severity), the accident count and its
// percentage of that year's total.
func (a *Analyzer) SeverityTrends(ctx context.Context) ([]domain.SeverityTrend, error) {
	stmt := fmt.Sprintf(`SELECT
		EXTRACT(year FROM Start_Time::TIMESTAMP) AS year,
		Severity,
		COUNT(*) AS accident_count,
		COUNT(*) * 100.0 / SUM(COUNT(*)) OVER (PARTITION BY EXTRACT(year FROM Start_Time::TIMESTAMP)) AS percentage
	FROM %s
	WHERE Start_Time IS NOT NULL AND Severity IS NOT NULL
	GROUP BY year, Severity
	ORDER BY year, Severity`, a.table())

	var out []domain.SeverityTrend
	err := a.query(ctx, "severity_trends", stmt, func(rows *sql.Rows) error {
		for rows.Next() {
			var t domain.SeverityTrend
			var year, sev int64
			if err := rows.Scan(&year, &sev, &t.AccidentCount, &t.Percentage); err != nil {
				return err
			}
			t.Year, t.Severity = int(year), int(sev)
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AnnualStateTotals computes total accidents per state per year, ordered by
// year ascending then count descending.
func (a *Analyzer) AnnualStateTotals(ctx context.Context) ([]domain.StateTotal, error) {
	stmt := fmt.Sprintf(`SELECT
		EXTRACT(year FROM Start_Time::TIMESTAMP) AS year,
		State,
		COUNT(*) AS total_accidents
	FROM %s
	WHERE Start_Time IS NOT NULL AND State IS NOT NULL AND State != ''
	GROUP BY year, State
	ORDER BY year, total_accidents DESC`, a.table())

	var out []domain.StateTotal
	err := a.query(ctx, "annual_state_totals", stmt, func(rows *sql.Rows) error {
		for rows.Next() {
			var t domain.StateTotal
			var year int64
			if err := rows.Scan(&year, &t.State, &t.TotalAccidents); err != nil {
				return err
			}
			t.Year = int(year)
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TopWeatherByState returns the limit most common weather conditions per
// state, computed with a ranked CTE.
func (a *Analyzer) TopWeatherByState(ctx context.Context, limit int) ([]domain.StateWeatherCount, error) {
	if limit <= 0 {
		return nil, &QueryError{Op: "top_weather_by_state", Err: fmt.Errorf("limit must be positive, got %d", limit)}
	}

	stmt := fmt.Sprintf(`WITH weather_counts AS (
		SELECT
			State,
			Weather_Condition,
			COUNT(*) AS accident_count,
			ROW_NUMBER() OVER (PARTITION BY State ORDER BY COUNT(*) DESC) AS rn
		FROM %s
		WHERE State IS NOT NULL AND State != ''
			AND Weather_Condition IS NOT NULL AND Weather_Condition != ''
		GROUP BY State, Weather_Condition
	)
	SELECT State, Weather_Condition, accident_count
	FROM weather_counts
	WHERE rn <= %d
	ORDER BY State, accident_count DESC`, a.table(), limit)

	var out []domain.StateWeatherCount
	err := a.query(ctx, "top_weather_by_state", stmt, func(rows *sql.Rows) error {
		for rows.Next() {
			var c domain.StateWeatherCount
			if err := rows.Scan(&c.State, &c.WeatherCondition, &c.AccidentCount); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetailedRisk stratifies counts by year, state, severity, weather, and the
// fixed time-of-day bucket.
func (a *Analyzer) DetailedRisk(ctx context.Context) ([]domain.DetailedRisk, error) {
	stmt := fmt.Sprintf(`SELECT
		EXTRACT(year FROM Start_Time::TIMESTAMP) AS year,
		State,
		Severity,
		Weather_Condition,
		%s AS time_of_day,
		COUNT(*) AS accident_count
	FROM %s
	WHERE Start_Time IS NOT NULL
		AND State IS NOT NULL AND State != ''
		AND Severity IS NOT NULL
		AND Weather_Condition IS NOT NULL AND Weather_Condition != ''
	GROUP BY year, State, Severity, Weather_Condition, time_of_day
	ORDER BY year, State, accident_count DESC`, timeOfDayExpr, a.table())

	var out []domain.DetailedRisk
	err := a.query(ctx, "detailed_risk", stmt, func(rows *sql.Rows) error {
		for rows.Next() {
			var d domain.DetailedRisk
			var year, sev int64
			if err := rows.Scan(&year, &d.State, &sev, &d.WeatherCondition, &d.TimeOfDay, &d.AccidentCount); err != nil {
				return err
			}
			d.Year, d.Severity = int(year), int(sev)
			out = append(out, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
