package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roadmetrics/accident-risk/internal/domain"
)

// summaryJSON is the documented on-disk shape of the summary report.
type summaryJSON struct {
	TotalAccidents       int64                  `json:"total_accidents"`
	DateRange            [2]string              `json:"date_range"`
	StatesCovered        int                    `json:"states_covered"`
	TopStates            []domain.StateCount    `json:"top_states"`
	SeverityDistribution []domain.SeverityShare `json:"severity_distribution"`
	GeneratedAt          string                 `json:"generated_at"`
}

// WriteSummary writes the summary report as indented JSON.
func WriteSummary(path string, s *domain.Summary) error {
	out := summaryJSON{
		TotalAccidents: s.TotalAccidents,
		DateRange: [2]string{
			s.DateRange.Start.Format(timestampLayout),
			s.DateRange.End.Format(timestampLayout),
		},
		StatesCovered:        s.StatesCovered,
		TopStates:            s.TopStates,
		SeverityDistribution: s.SeverityDistribution,
		GeneratedAt:          s.GeneratedAt.Format(timestampLayout),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
