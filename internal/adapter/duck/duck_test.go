package duck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"accidents"`, QuoteIdent("accidents"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `'plain'`, QuoteString("plain"))
	assert.Equal(t, `'it''s'`, QuoteString("it's"))
}

func TestOpenAppliesResourceSettings(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, Options{Threads: 2, MemoryLimit: "512MB"})
	require.NoError(t, err)
	defer db.Close()

	var threads string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestScanTableNormalizesValues(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, Options{})
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT
		42::INTEGER AS small,
		42::BIGINT AS big,
		1.5::DOUBLE AS frac,
		'text' AS label,
		NULL AS missing,
		TIMESTAMP '2021-07-04 09:30:00' AS at`)
	require.NoError(t, err)
	defer rows.Close()

	tbl, err := ScanTable(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"small", "big", "frac", "label", "missing", "at"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, int64(42), row[0])
	assert.Equal(t, int64(42), row[1])
	assert.Equal(t, 1.5, row[2])
	assert.Equal(t, "text", row[3])
	assert.Nil(t, row[4])
	assert.Equal(t, time.Date(2021, time.July, 4, 9, 30, 0, 0, time.UTC), row[5])
}
