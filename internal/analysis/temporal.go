package analysis

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roadmetrics/accident-risk/internal/domain"
)

// seasonExpr maps the start month onto the fixed meteorological seasons.
const seasonExpr = `CASE
	WHEN EXTRACT(month FROM Start_Time::TIMESTAMP) IN (12, 1, 2) THEN 'Winter'
	WHEN EXTRACT(month FROM Start_Time::TIMESTAMP) IN (3, 4, 5) THEN 'Spring'
	WHEN EXTRACT(month FROM Start_Time::TIMESTAMP) IN (6, 7, 8) THEN 'Summer'
	WHEN EXTRACT(month FROM Start_Time::TIMESTAMP) IN (9, 10, 11) THEN 'Fall'
END`

// TemporalPatterns runs the four fixed temporal breakdowns: by hour of day,
// day of week (0=Sunday), calendar month, and season. The seasonal result is
// ordered by count descending; the other three by their natural key.
func (a *Analyzer) TemporalPatterns(ctx context.Context) (*domain.TemporalPatterns, error) {
	tp := &domain.TemporalPatterns{}

	err := a.query(ctx, "temporal_hourly", fmt.Sprintf(
		`SELECT %s AS hour, COUNT(*) AS accident_count, AVG(Severity) AS avg_severity
		FROM %s WHERE Start_Time IS NOT NULL
		GROUP BY hour ORDER BY hour`, hourExpr, a.table()),
		func(rows *sql.Rows) error {
			for rows.Next() {
				var p domain.HourlyPattern
				var hour int64
				if err := rows.Scan(&hour, &p.AccidentCount, &p.AvgSeverity); err != nil {
					return err
				}
				p.Hour = int(hour)
				tp.Hourly = append(tp.Hourly, p)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	err = a.query(ctx, "temporal_daily", fmt.Sprintf(
		`SELECT %s AS day_of_week, COUNT(*) AS accident_count, AVG(Severity) AS avg_severity
		FROM %s WHERE Start_Time IS NOT NULL
		GROUP BY day_of_week ORDER BY day_of_week`, dowExpr, a.table()),
		func(rows *sql.Rows) error {
			for rows.Next() {
				var p domain.DailyPattern
				var dow int64
				if err := rows.Scan(&dow, &p.AccidentCount, &p.AvgSeverity); err != nil {
					return err
				}
				p.DayOfWeek = int(dow)
				tp.Daily = append(tp.Daily, p)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	err = a.query(ctx, "temporal_monthly", fmt.Sprintf(
		`SELECT %s AS month, COUNT(*) AS accident_count, AVG(Severity) AS avg_severity
		FROM %s WHERE Start_Time IS NOT NULL
		GROUP BY month ORDER BY month`, monthExpr, a.table()),
		func(rows *sql.Rows) error {
			for rows.Next() {
				var p domain.MonthlyPattern
				var month int64
				if err := rows.Scan(&month, &p.AccidentCount, &p.AvgSeverity); err != nil {
					return err
				}
				p.Month = int(month)
				tp.Monthly = append(tp.Monthly, p)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	err = a.query(ctx, "temporal_seasonal", fmt.Sprintf(
		`SELECT %s AS season, COUNT(*) AS accident_count, AVG(Severity) AS avg_severity
		FROM %s WHERE Start_Time IS NOT NULL
		GROUP BY season ORDER BY accident_count DESC`, seasonExpr, a.table()),
		func(rows *sql.Rows) error {
			for rows.Next() {
				var p domain.SeasonalPattern
				if err := rows.Scan(&p.Season, &p.AccidentCount, &p.AvgSeverity); err != nil {
					return err
				}
				tp.Seasonal = append(tp.Seasonal, p)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}

	return tp, nil
}
