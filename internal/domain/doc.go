// Package domain models the US Accidents dataset and the tabular results
// produced by the analysis layer.
//
// # Data Source
//
// The source file is the countrywide US Accidents CSV (7M+ records collected
// from live traffic feeds between 2016 and 2023). Each row is one accident
// report. The schema is wide (~46 columns) and inferred at load time; analyses
// reference only a small key subset and tolerate any extra columns.
//
// # Key Columns
//
//	ID                 unique record identifier, e.g. "A-348"
//	Start_Time         local timestamp, "2020-06-15 08:45:12"
//	State              two-letter US state code, e.g. "CA"
//	Severity           ordinal impact rating 1-4 (4 = most severe)
//	Weather_Condition  free-text label, e.g. "Light Rain"; may be empty
//
// Rows with a null Start_Time, a null or empty State, or a null Severity are
// excluded from every aggregation. Weather_Condition nulls are excluded only
// by the weather-specific analyses.
//
// # Derived Time Fields
//
// Year, month, hour, and day-of-week values are extracted from Start_Time by
// the query engine. Day-of-week numbering follows the engine's convention:
// 0 = Sunday through 6 = Saturday.
//
// Seasons use the fixed meteorological mapping:
//
//	Dec/Jan/Feb  Winter
//	Mar/Apr/May  Spring
//	Jun/Jul/Aug  Summer
//	Sep/Oct/Nov  Fall
//
// Time-of-day buckets (used by the detailed risk breakdown) are fixed at
// 06-11 Morning, 12-17 Afternoon, 18-21 Evening, everything else Night.
//
// # Severity Classification
//
// A "severe" accident is one with Severity >= 3. State-level severe rates are
// expressed as a percentage of that state's total accidents for the year.
package domain
