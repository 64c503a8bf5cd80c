// Package duck wraps the embedded DuckDB engine behind database/sql. It owns
// connection setup and the generic row-to-table scanning used by the loader
// and analysis layers.
package duck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2" // registers the "duckdb" driver

	"github.com/roadmetrics/accident-risk/internal/domain"
)

// Options carries engine resource settings. Zero values leave the engine
// defaults in place.
type Options struct {
	Threads     int    // worker threads, e.g. 4
	MemoryLimit string // engine syntax, e.g. "4GB"
}

// Open creates an in-memory DuckDB database and applies the configured
// resource pragmas. The caller owns the returned handle.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if opts.Threads > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET threads = %d", opts.Threads)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}
	if opts.MemoryLimit != "" {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET memory_limit = %s", QuoteString(opts.MemoryLimit))); err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory_limit: %w", err)
		}
	}
	return db, nil
}

// ScanTable drains rows into a domain.Table, normalizing driver-native
// values: all integer widths become int64, float32 becomes float64, and
// []byte becomes string. NULL stays nil.
func ScanTable(rows *sql.Rows) (domain.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read result columns: %w", err)
	}

	t := domain.Table{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.Table{}, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			vals[i] = normalize(v)
		}
		t.Rows = append(t.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("iterate rows: %w", err)
	}
	return t, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case time.Time:
		return x
	default:
		return v
	}
}

// QuoteIdent double-quotes an identifier for safe splicing into query text.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString single-quotes a string literal for safe splicing into query text.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
