package report

import (
	"github.com/samber/lo"

	"github.com/roadmetrics/accident-risk/internal/domain"
)

// Typed result slices are converted to plain tables here so the CSV writer
// and chart layer only ever deal with one shape. Column names match the
// documented export formats.

func StateRatesTable(rows []domain.StateRate) domain.Table {
	return domain.Table{
		Columns: []string{"year", "State", "total_accidents", "severe_accidents", "severe_accident_rate"},
		Rows: lo.Map(rows, func(r domain.StateRate, _ int) []any {
			return []any{int64(r.Year), r.State, r.TotalAccidents, r.SevereAccidents, r.SevereAccidentRate}
		}),
	}
}

func HourlyTable(rows []domain.HourlyPattern) domain.Table {
	return domain.Table{
		Columns: []string{"hour", "accident_count", "avg_severity"},
		Rows: lo.Map(rows, func(r domain.HourlyPattern, _ int) []any {
			return []any{int64(r.Hour), r.AccidentCount, r.AvgSeverity}
		}),
	}
}

func DailyTable(rows []domain.DailyPattern) domain.Table {
	return domain.Table{
		Columns: []string{"day_of_week", "accident_count", "avg_severity"},
		Rows: lo.Map(rows, func(r domain.DailyPattern, _ int) []any {
			return []any{int64(r.DayOfWeek), r.AccidentCount, r.AvgSeverity}
		}),
	}
}

func MonthlyTable(rows []domain.MonthlyPattern) domain.Table {
	return domain.Table{
		Columns: []string{"month", "accident_count", "avg_severity"},
		Rows: lo.Map(rows, func(r domain.MonthlyPattern, _ int) []any {
			return []any{int64(r.Month), r.AccidentCount, r.AvgSeverity}
		}),
	}
}

func SeasonalTable(rows []domain.SeasonalPattern) domain.Table {
	return domain.Table{
		Columns: []string{"season", "accident_count", "avg_severity"},
		Rows: lo.Map(rows, func(r domain.SeasonalPattern, _ int) []any {
			return []any{r.Season, r.AccidentCount, r.AvgSeverity}
		}),
	}
}

func WeatherRiskTable(rows []domain.WeatherRisk) domain.Table {
	return domain.Table{
		Columns: []string{"State", "Weather_Condition", "accident_count", "avg_severity", "state_percentage", "weather_rank"},
		Rows: lo.Map(rows, func(r domain.WeatherRisk, _ int) []any {
			return []any{r.State, r.WeatherCondition, r.AccidentCount, r.AvgSeverity, r.StatePercentage, int64(r.WeatherRank)}
		}),
	}
}

func SeverityTrendsTable(rows []domain.SeverityTrend) domain.Table {
	return domain.Table{
		Columns: []string{"year", "Severity", "accident_count", "percentage"},
		Rows: lo.Map(rows, func(r domain.SeverityTrend, _ int) []any {
			return []any{int64(r.Year), int64(r.Severity), r.AccidentCount, r.Percentage}
		}),
	}
}

func StateTotalsTable(rows []domain.StateTotal) domain.Table {
	return domain.Table{
		Columns: []string{"year", "State", "total_accidents"},
		Rows: lo.Map(rows, func(r domain.StateTotal, _ int) []any {
			return []any{int64(r.Year), r.State, r.TotalAccidents}
		}),
	}
}

func TopWeatherTable(rows []domain.StateWeatherCount) domain.Table {
	return domain.Table{
		Columns: []string{"State", "Weather_Condition", "accident_count"},
		Rows: lo.Map(rows, func(r domain.StateWeatherCount, _ int) []any {
			return []any{r.State, r.WeatherCondition, r.AccidentCount}
		}),
	}
}

func DetailedRiskTable(rows []domain.DetailedRisk) domain.Table {
	return domain.Table{
		Columns: []string{"year", "State", "Severity", "Weather_Condition", "time_of_day", "accident_count"},
		Rows: lo.Map(rows, func(r domain.DetailedRisk, _ int) []any {
			return []any{int64(r.Year), r.State, int64(r.Severity), r.WeatherCondition, r.TimeOfDay, r.AccidentCount}
		}),
	}
}
