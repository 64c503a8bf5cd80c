package domain

import "time"

// StateRate is one (year, state) row of the annual severe-rate analysis.
// SevereAccidentRate is a percentage in [0, 100].
type StateRate struct {
	Year               int
	State              string
	TotalAccidents     int64
	SevereAccidents    int64
	SevereAccidentRate float64
}

// HourlyPattern aggregates accidents for one hour of the day (0-23).
type HourlyPattern struct {
	Hour          int
	AccidentCount int64
	AvgSeverity   float64
}

// DailyPattern aggregates accidents for one day of the week (0=Sunday).
type DailyPattern struct {
	DayOfWeek     int
	AccidentCount int64
	AvgSeverity   float64
}

// MonthlyPattern aggregates accidents for one calendar month (1-12).
type MonthlyPattern struct {
	Month         int
	AccidentCount int64
	AvgSeverity   float64
}

// SeasonalPattern aggregates accidents for one meteorological season.
type SeasonalPattern struct {
	Season        string
	AccidentCount int64
	AvgSeverity   float64
}

// TemporalPatterns bundles the four fixed temporal breakdowns. Hourly, Daily,
// and Monthly are ordered by their natural key ascending; Seasonal is ordered
// by count descending.
type TemporalPatterns struct {
	Hourly   []HourlyPattern
	Daily    []DailyPattern
	Monthly  []MonthlyPattern
	Seasonal []SeasonalPattern
}

// WeatherRisk is one (state, weather) row of the weather ranking analysis.
// StatePercentage is this pair's share of the state's total; WeatherRank
// restarts at 1 for each state, 1 = most common condition.
type WeatherRisk struct {
	State            string
	WeatherCondition string
	AccidentCount    int64
	AvgSeverity      float64
	StatePercentage  float64
	WeatherRank      int
}

// StateCount pairs a state with its total accident count.
type StateCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

// SeverityShare is one severity level's slice of the grand total.
type SeverityShare struct {
	Severity   int     `json:"severity"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DateSpan is the closed interval covered by non-null timestamps.
type DateSpan struct {
	Start time.Time
	End   time.Time
}

// Summary is the top-level dataset report.
type Summary struct {
	TotalAccidents       int64
	DateRange            DateSpan
	StatesCovered        int
	TopStates            []StateCount
	SeverityDistribution []SeverityShare
	GeneratedAt          time.Time
}

// SeverityTrend is one (year, severity) row with its share of that year's
// accidents.
type SeverityTrend struct {
	Year          int
	Severity      int
	AccidentCount int64
	Percentage    float64
}

// StateTotal is one (year, state) total-count row.
type StateTotal struct {
	Year           int
	State          string
	TotalAccidents int64
}

// StateWeatherCount is one row of the top-N weather conditions per state.
type StateWeatherCount struct {
	State            string
	WeatherCondition string
	AccidentCount    int64
}

// DetailedRisk stratifies counts by year, state, severity, weather, and the
// fixed time-of-day bucket.
type DetailedRisk struct {
	Year             int
	State            string
	Severity         int
	WeatherCondition string
	TimeOfDay        string
	AccidentCount    int64
}
