// Package viz renders analysis results as standalone interactive HTML chart
// pages. It consumes tabular results only and never touches the query engine.
package viz

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"

	"github.com/roadmetrics/accident-risk/internal/domain"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var monthNames = [13]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// RenderTemporalPatterns writes one page with the hourly, day-of-week, and
// monthly bars plus the seasonal pie.
func RenderTemporalPatterns(tp *domain.TemporalPatterns, path string) error {
	hourly := newBar("Accidents by Hour of Day", "Hour")
	hourly.SetXAxis(lo.Map(tp.Hourly, func(p domain.HourlyPattern, _ int) string {
		return strconv.Itoa(p.Hour)
	})).AddSeries("accidents", lo.Map(tp.Hourly, func(p domain.HourlyPattern, _ int) opts.BarData {
		return opts.BarData{Value: p.AccidentCount}
	}))

	daily := newBar("Accidents by Day of Week", "Day")
	daily.SetXAxis(lo.Map(tp.Daily, func(p domain.DailyPattern, _ int) string {
		return dayName(p.DayOfWeek)
	})).AddSeries("accidents", lo.Map(tp.Daily, func(p domain.DailyPattern, _ int) opts.BarData {
		return opts.BarData{Value: p.AccidentCount}
	}))

	monthly := newBar("Accidents by Month", "Month")
	monthly.SetXAxis(lo.Map(tp.Monthly, func(p domain.MonthlyPattern, _ int) string {
		return monthName(p.Month)
	})).AddSeries("accidents", lo.Map(tp.Monthly, func(p domain.MonthlyPattern, _ int) opts.BarData {
		return opts.BarData{Value: p.AccidentCount}
	}))

	seasonal := charts.NewPie()
	seasonal.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Accidents by Season"}))
	seasonal.AddSeries("seasons", lo.Map(tp.Seasonal, func(p domain.SeasonalPattern, _ int) opts.PieData {
		return opts.PieData{Name: p.Season, Value: p.AccidentCount}
	})).SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))

	return renderPage(path, hourly, daily, monthly, seasonal)
}

// RenderSeverity writes the overall severity distribution pie and, when
// trends are present, a per-year stacked severity bar.
func RenderSeverity(s *domain.Summary, trends []domain.SeverityTrend, path string) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Severity Distribution"}))
	pie.AddSeries("severity", lo.Map(s.SeverityDistribution, func(sh domain.SeverityShare, _ int) opts.PieData {
		return opts.PieData{Name: fmt.Sprintf("Severity %d", sh.Severity), Value: sh.Count}
	})).SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))

	if len(trends) == 0 {
		return renderPage(path, pie)
	}

	years := lo.Uniq(lo.Map(trends, func(t domain.SeverityTrend, _ int) int { return t.Year }))
	sort.Ints(years)
	byKey := lo.SliceToMap(trends, func(t domain.SeverityTrend) (string, int64) {
		return fmt.Sprintf("%d|%d", t.Year, t.Severity), t.AccidentCount
	})

	stacked := newBar("Severity Trends Over Time", "Year")
	stacked.SetXAxis(lo.Map(years, func(y int, _ int) string { return strconv.Itoa(y) }))
	for sev := 1; sev <= 4; sev++ {
		data := lo.Map(years, func(y int, _ int) opts.BarData {
			return opts.BarData{Value: byKey[fmt.Sprintf("%d|%d", y, sev)]}
		})
		stacked.AddSeries(fmt.Sprintf("Severity %d", sev), data)
	}
	stacked.SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "severity"}))

	return renderPage(path, pie, stacked)
}

// RenderTopStates writes a bar of the summary's top states by count.
func RenderTopStates(s *domain.Summary, path string) error {
	bar := newBar("Top States by Total Accidents", "State")
	bar.SetXAxis(lo.Map(s.TopStates, func(sc domain.StateCount, _ int) string {
		return sc.State
	})).AddSeries("accidents", lo.Map(s.TopStates, func(sc domain.StateCount, _ int) opts.BarData {
		return opts.BarData{Value: sc.Count}
	}))
	return renderPage(path, bar)
}

// RenderWeatherRisk aggregates the per-state weather rows nationally and
// writes a bar of the topN conditions by total count.
func RenderWeatherRisk(rows []domain.WeatherRisk, topN int, path string) error {
	type total struct {
		condition string
		count     int64
	}

	grouped := lo.GroupBy(rows, func(r domain.WeatherRisk) string { return r.WeatherCondition })
	totals := lo.MapToSlice(grouped, func(cond string, rs []domain.WeatherRisk) total {
		return total{condition: cond, count: lo.SumBy(rs, func(r domain.WeatherRisk) int64 { return r.AccidentCount })}
	})
	sort.Slice(totals, func(i, j int) bool { return totals[i].count > totals[j].count })
	if topN > 0 && len(totals) > topN {
		totals = totals[:topN]
	}

	bar := newBar("Accidents by Weather Condition", "Condition")
	bar.SetXAxis(lo.Map(totals, func(t total, _ int) string {
		return t.condition
	})).AddSeries("accidents", lo.Map(totals, func(t total, _ int) opts.BarData {
		return opts.BarData{Value: t.count}
	}))
	return renderPage(path, bar)
}

func newBar(title, xName string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	return bar
}

func dayName(dow int) string {
	if dow < 0 || dow > 6 {
		return strconv.Itoa(dow)
	}
	return dayNames[dow]
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return monthNames[m]
}

func renderPage(path string, cs ...components.Charter) error {
	page := components.NewPage()
	page.AddCharts(cs...)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
