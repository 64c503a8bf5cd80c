package loader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
)

// KeyColumns are the columns every analysis depends on. Validation checks
// each one individually and tolerates its absence.
var KeyColumns = []string{"ID", "Start_Time", "State", "Severity", "Weather_Condition"}

// MissingValueStat counts null or empty values in one key column.
type MissingValueStat struct {
	Column     string
	Count      int64
	Percentage float64
}

// DateRange is the timestamp span of non-null Start_Time values.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// SeverityRange summarizes the observed severity values.
type SeverityRange struct {
	Min      int64
	Max      int64
	Distinct int64
}

// UnavailableCheck records a validation check that could not run, typically
// because its column is absent from the source schema.
type UnavailableCheck struct {
	Check  string
	Reason string
}

// ValidationReport is the partial-tolerant result of Validate. Nil pointer
// fields mean the corresponding check was unavailable; the reason is listed
// in Unavailable.
type ValidationReport struct {
	TotalRows     int64
	MissingValues []MissingValueStat
	DateRange     *DateRange
	SeverityRange *SeverityRange
	UniqueStates  *int64
	Unavailable   []UnavailableCheck
}

// Validate ingests the source into a temporary relation and computes
// missing-value and range statistics for the key columns. Individual check
// failures are recorded as unavailable rather than aborting the pass.
func (l *Loader) Validate(ctx context.Context) (*ValidationReport, error) {
	db, err := duck.Open(ctx, l.opts)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// Temporary tables are scoped to a single engine connection, so the
	// whole pass runs on one pinned connection rather than the pool.
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, &LoadError{Path: l.path, Err: err}
	}
	defer conn.Close()

	stmt := fmt.Sprintf("CREATE TEMPORARY TABLE checkset AS SELECT * FROM read_csv_auto(%s)",
		duck.QuoteString(l.path))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return nil, &LoadError{Path: l.path, Err: err}
	}

	report := &ValidationReport{}
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM checkset").Scan(&report.TotalRows); err != nil {
		return nil, &LoadError{Path: l.path, Err: err}
	}

	present, err := presentColumns(ctx, conn)
	if err != nil {
		return nil, &LoadError{Path: l.path, Err: err}
	}

	l.checkMissingValues(ctx, conn, present, report)
	l.checkDateRange(ctx, conn, present, report)
	l.checkSeverityRange(ctx, conn, present, report)
	l.checkUniqueStates(ctx, conn, present, report)

	return report, nil
}

func presentColumns(ctx context.Context, conn *sql.Conn) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT column_name FROM (DESCRIBE checkset)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		present[name] = true
	}
	return present, rows.Err()
}

func (l *Loader) checkMissingValues(ctx context.Context, conn *sql.Conn, present map[string]bool, report *ValidationReport) {
	for _, col := range KeyColumns {
		if !present[col] {
			report.Unavailable = append(report.Unavailable, UnavailableCheck{
				Check:  fmt.Sprintf("missing values: %s", col),
				Reason: "column absent from source schema",
			})
			continue
		}

		// Empty-string comparison only applies to text columns; CAST keeps
		// the check uniform across inferred types.
		q := fmt.Sprintf(
			"SELECT COUNT(*) FROM checkset WHERE %s IS NULL OR CAST(%s AS VARCHAR) = ''",
			duck.QuoteIdent(col), duck.QuoteIdent(col))
		var missing int64
		if err := conn.QueryRowContext(ctx, q).Scan(&missing); err != nil {
			l.markUnavailable(report, fmt.Sprintf("missing values: %s", col), err)
			continue
		}

		pct := 0.0
		if report.TotalRows > 0 {
			pct = float64(missing) * 100 / float64(report.TotalRows)
		}
		report.MissingValues = append(report.MissingValues, MissingValueStat{
			Column: col, Count: missing, Percentage: pct,
		})
	}
}

func (l *Loader) checkDateRange(ctx context.Context, conn *sql.Conn, present map[string]bool, report *ValidationReport) {
	if !present["Start_Time"] {
		report.Unavailable = append(report.Unavailable, UnavailableCheck{
			Check: "date range", Reason: "column absent from source schema",
		})
		return
	}

	var dr DateRange
	err := conn.QueryRowContext(ctx,
		`SELECT MIN(Start_Time::TIMESTAMP), MAX(Start_Time::TIMESTAMP)
		 FROM checkset WHERE Start_Time IS NOT NULL`).Scan(&dr.Min, &dr.Max)
	if err != nil {
		l.markUnavailable(report, "date range", err)
		return
	}
	report.DateRange = &dr
}

func (l *Loader) checkSeverityRange(ctx context.Context, conn *sql.Conn, present map[string]bool, report *ValidationReport) {
	if !present["Severity"] {
		report.Unavailable = append(report.Unavailable, UnavailableCheck{
			Check: "severity range", Reason: "column absent from source schema",
		})
		return
	}

	var sr SeverityRange
	err := conn.QueryRowContext(ctx,
		`SELECT MIN(Severity), MAX(Severity), COUNT(DISTINCT Severity)
		 FROM checkset WHERE Severity IS NOT NULL`).Scan(&sr.Min, &sr.Max, &sr.Distinct)
	if err != nil {
		l.markUnavailable(report, "severity range", err)
		return
	}
	report.SeverityRange = &sr
}

func (l *Loader) checkUniqueStates(ctx context.Context, conn *sql.Conn, present map[string]bool, report *ValidationReport) {
	if !present["State"] {
		report.Unavailable = append(report.Unavailable, UnavailableCheck{
			Check: "unique states", Reason: "column absent from source schema",
		})
		return
	}

	var states int64
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT State) FROM checkset
		 WHERE State IS NOT NULL AND State != ''`).Scan(&states)
	if err != nil {
		l.markUnavailable(report, "unique states", err)
		return
	}
	report.UniqueStates = &states
}

func (l *Loader) markUnavailable(report *ValidationReport, check string, err error) {
	l.logger.Warn("validation check unavailable", "check", check, "error", err)
	report.Unavailable = append(report.Unavailable, UnavailableCheck{
		Check: check, Reason: err.Error(),
	})
}
