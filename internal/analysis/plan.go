package analysis

import (
	"fmt"
	"strings"

	"github.com/roadmetrics/accident-risk/internal/adapter/duck"
)

// QueryError reports a malformed or impossible aggregation. When the problem
// is a grouping column absent from the source schema, Column names it. The
// error is never retried or translated; it surfaces to the caller as-is.
type QueryError struct {
	Op     string
	Column string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: unknown column %q", e.Op, e.Column)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Derived time-field expressions, all extracted from the start timestamp.
const (
	yearExpr  = "EXTRACT(year FROM Start_Time::TIMESTAMP)"
	monthExpr = "EXTRACT(month FROM Start_Time::TIMESTAMP)"
	hourExpr  = "EXTRACT(hour FROM Start_Time::TIMESTAMP)"
	dowExpr   = "EXTRACT(dow FROM Start_Time::TIMESTAMP)"
)

// weatherColumn is the source column folded in by the include-weather flag.
const weatherColumn = "Weather_Condition"

// groupField is one group-by key: either a raw source column or a derived
// expression with an alias.
type groupField struct {
	expr string // empty for raw source columns
	name string // output column name; quoted source column when expr is empty
}

// aggregatePlan is a structured grouped aggregation, validated against the
// source schema before any query text is generated.
type aggregatePlan struct {
	groups  []groupField
	filters []string
}

// buildRiskPlan assembles the grouping set for a risk aggregation:
// the derived year always leads, caller dimensions follow in the order
// given, weather is folded in when requested and not already present, and
// month and hour close the set when time fields are requested. Caller
// dimensions are validated against the source schema; an unknown name
// produces a *QueryError identifying it.
func buildRiskPlan(dims []string, includeWeather, includeTime bool, schema map[string]string) (*aggregatePlan, error) {
	p := &aggregatePlan{
		groups: []groupField{{expr: yearExpr, name: "year"}},
		filters: []string{
			"Start_Time IS NOT NULL",
			"State IS NOT NULL AND State != ''",
			"Severity IS NOT NULL",
		},
	}

	requested := make(map[string]bool, len(dims))
	for _, dim := range dims {
		if _, ok := schema[dim]; !ok {
			return nil, &QueryError{Op: "compute risk", Column: dim}
		}
		requested[dim] = true
		p.groups = append(p.groups, groupField{name: dim})
	}

	if includeWeather && !requested[weatherColumn] {
		if _, ok := schema[weatherColumn]; !ok {
			return nil, &QueryError{Op: "compute risk", Column: weatherColumn}
		}
		p.groups = append(p.groups, groupField{name: weatherColumn})
	}

	if includeTime {
		p.groups = append(p.groups,
			groupField{expr: monthExpr, name: "month"},
			groupField{expr: hourExpr, name: "hour"},
		)
	}

	return p, nil
}

// SQL renders the plan against the named relation. Output rows carry the
// grouping keys plus accident_count and avg_severity, ordered by year
// ascending then count descending.
func (p *aggregatePlan) SQL(table string) string {
	selects := make([]string, 0, len(p.groups)+2)
	groupBys := make([]string, 0, len(p.groups))
	for _, g := range p.groups {
		if g.expr != "" {
			selects = append(selects, fmt.Sprintf("%s AS %s", g.expr, g.name))
			groupBys = append(groupBys, g.name)
			continue
		}
		selects = append(selects, duck.QuoteIdent(g.name))
		groupBys = append(groupBys, duck.QuoteIdent(g.name))
	}
	selects = append(selects, "COUNT(*) AS accident_count", "AVG(Severity) AS avg_severity")

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selects, ", "))
	b.WriteString(" FROM ")
	b.WriteString(duck.QuoteIdent(table))
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(p.filters, " AND "))
	b.WriteString(" GROUP BY ")
	b.WriteString(strings.Join(groupBys, ", "))
	b.WriteString(" ORDER BY year, accident_count DESC")
	return b.String()
}

// columns returns the output column names in order.
func (p *aggregatePlan) columns() []string {
	names := make([]string, 0, len(p.groups)+2)
	for _, g := range p.groups {
		names = append(names, g.name)
	}
	return append(names, "accident_count", "avg_severity")
}
