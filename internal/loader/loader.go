// Package loader ingests the US Accidents CSV into an embedded DuckDB store
// and provides inspection helpers (sampling, schema probing, validation,
// memory estimation) that never materialize the full dataset.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
	"github.com/roadmetrics/accident-risk/internal/domain"
	"github.com/roadmetrics/accident-risk/internal/observability"
)

// DefaultTable is the relation name used when none is given.
const DefaultTable = "accidents"

// Loader reads one source CSV. Every operation except Load opens and closes
// its own ephemeral engine connection; Load returns a live handle owned by
// the caller.
type Loader struct {
	path    string
	opts    duck.Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Dataset is a live, read-only relation inside an embedded engine instance.
// Callers must Close it on every exit path.
type Dataset struct {
	DB    *sql.DB
	Table string
}

// Close releases the underlying engine resources.
func (d *Dataset) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// ColumnInfo is one name/type pair from schema inference.
type ColumnInfo struct {
	Name string
	Type string
}

// New creates a Loader for the given source path. Returns ErrDataNotFound
// (wrapped with the path) when the file does not exist.
func New(path string, opts duck.Options, logger *slog.Logger, metrics *observability.Metrics) (*Loader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDataNotFound, path)
	}
	return &Loader{path: path, opts: opts, logger: logger, metrics: metrics}, nil
}

// Path returns the source file path.
func (l *Loader) Path() string { return l.path }

// Load ingests the CSV into a fresh in-memory engine instance as the named
// relation, inferring column types. On failure the engine instance is closed
// and a *LoadError carrying the cause is returned; no partial handle is left
// usable.
func (l *Loader) Load(ctx context.Context, table string) (*Dataset, error) {
	if table == "" {
		table = DefaultTable
	}

	db, err := duck.Open(ctx, l.opts)
	if err != nil {
		return nil, &LoadError{Path: l.path, Err: err}
	}

	start := time.Now()
	stmt := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s)",
		duck.QuoteIdent(table), duck.QuoteString(l.path))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		db.Close()
		return nil, &LoadError{Path: l.path, Err: err}
	}

	var rows int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", duck.QuoteIdent(table))).Scan(&rows); err != nil {
		db.Close()
		return nil, &LoadError{Path: l.path, Err: err}
	}

	l.metrics.RowsLoaded.Add(float64(rows))
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.metrics.DatasetReady.Set(1)
	l.logger.Info("dataset loaded", "path", l.path, "table", table, "rows", rows,
		"duration", time.Since(start).Round(time.Millisecond))

	return &Dataset{DB: db, Table: table}, nil
}

// Sample returns up to n rows drawn by the engine's reservoir sampling,
// without materializing the dataset.
func (l *Loader) Sample(ctx context.Context, n int) (domain.Table, error) {
	if n <= 0 {
		return domain.Table{}, fmt.Errorf("sample size must be positive, got %d", n)
	}

	db, err := duck.Open(ctx, l.opts)
	if err != nil {
		return domain.Table{}, err
	}
	defer db.Close()

	q := fmt.Sprintf("SELECT * FROM read_csv_auto(%s) USING SAMPLE %d ROWS",
		duck.QuoteString(l.path), n)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return domain.Table{}, fmt.Errorf("sample %d rows: %w", n, err)
	}
	defer rows.Close()

	return duck.ScanTable(rows)
}

// DescribeColumns returns the inferred column names and types from a
// single-row probe of the source file.
func (l *Loader) DescribeColumns(ctx context.Context) ([]ColumnInfo, error) {
	db, err := duck.Open(ctx, l.opts)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := fmt.Sprintf(
		"SELECT column_name, column_type FROM (DESCRIBE SELECT * FROM read_csv_auto(%s) LIMIT 1)",
		duck.QuoteString(l.path))
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("describe columns: %w", err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("describe columns: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
