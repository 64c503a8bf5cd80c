// Package report serializes analysis results to flat export files: CSV for
// any tabular result, JSON for the summary report.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/roadmetrics/accident-risk/internal/domain"
)

// timestampLayout matches the source data's timestamp formatting.
const timestampLayout = "2006-01-02 15:04:05"

// WriteTable writes a table as CSV: header row of column names, then one
// record per row. NULL cells become empty fields.
func WriteTable(path string, t domain.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		record := lo.Map(row, func(cell any, _ int) string { return formatCell(cell) })
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadTable parses a CSV written by WriteTable. All cells come back as
// strings; it exists for consumers that post-process exports.
func ReadTable(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return domain.Table{}, fmt.Errorf("read %s: empty file", path)
	}

	t := domain.Table{Columns: records[0]}
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, lo.Map(rec, func(s string, _ int) any { return s }))
	}
	return t, nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(timestampLayout)
	default:
		return fmt.Sprint(x)
	}
}
