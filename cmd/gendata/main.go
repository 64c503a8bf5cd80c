// Command gendata writes a deterministic synthetic US-accidents CSV for
// demos and test fixtures. The same seed always produces the same file, so
// generated fixtures can back stable assertions.
//
// Usage:
//
//	go run ./cmd/gendata -out data/demo_accidents.csv -rows 5000 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

var header = []string{
	"ID", "Severity", "Start_Time", "End_Time", "State", "City",
	"Weather_Condition", "Temperature(F)", "Visibility(mi)", "Description",
}

var states = []string{
	"CA", "TX", "FL", "NY", "PA", "OH", "IL", "GA", "NC", "MI",
	"VA", "WA", "AZ", "TN", "SC", "OR", "MN", "CO", "NJ", "LA",
}

var cities = map[string][]string{
	"CA": {"Los Angeles", "San Diego", "Sacramento"},
	"TX": {"Houston", "Dallas", "Austin"},
	"FL": {"Miami", "Orlando", "Tampa"},
	"NY": {"New York", "Buffalo", "Albany"},
}

var weatherConditions = []string{
	"Clear", "Cloudy", "Mostly Cloudy", "Rain", "Light Rain",
	"Heavy Rain", "Snow", "Light Snow", "Fog", "Thunderstorm",
}

// severityWeights shapes the distribution toward severity 2, roughly
// matching the public dataset (severity 2 dominates).
var severityWeights = []int{8, 62, 24, 6}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output CSV path")
	rows := flag.Int("rows", 5000, "number of accident rows to generate")
	seed := flag.Int64("seed", 42, "random seed for reproducible output")
	startYear := flag.Int("start-year", 2019, "first year of generated timestamps")
	years := flag.Int("years", 4, "number of years spanned")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *rows <= 0 || *years <= 0 {
		return fmt.Errorf("-rows and -years must be positive")
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	stats := newStats()
	for i := 0; i < *rows; i++ {
		rec := genRecord(rng, i, *startYear, *years)
		stats.add(rec)
		if err := w.Write(rec.row()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Printf("wrote %d rows: %s", *rows, *out)
	stats.print()
	return nil
}

type record struct {
	id          string
	severity    int
	start, end  time.Time
	state, city string
	weather     string
	tempF       float64
	visibility  float64
	description string
}

func (r record) row() []string {
	return []string{
		r.id,
		strconv.Itoa(r.severity),
		r.start.Format("2006-01-02 15:04:05"),
		r.end.Format("2006-01-02 15:04:05"),
		r.state,
		r.city,
		r.weather,
		strconv.FormatFloat(r.tempF, 'f', 1, 64),
		strconv.FormatFloat(r.visibility, 'f', 1, 64),
		r.description,
	}
}

func genRecord(rng *rand.Rand, i, startYear, years int) record {
	state := states[rng.Intn(len(states))]
	start := randTime(rng, startYear, years)
	weather := weatherConditions[rng.Intn(len(weatherConditions))]

	// A small fraction of rows carry blanks so missing-value checks have
	// something to find.
	if rng.Intn(100) < 2 {
		weather = ""
	}

	return record{
		id:          fmt.Sprintf("A-%07d", i+1),
		severity:    weightedSeverity(rng),
		start:       start,
		end:         start.Add(time.Duration(15+rng.Intn(180)) * time.Minute),
		state:       state,
		city:        cityFor(rng, state),
		weather:     weather,
		tempF:       10 + rng.Float64()*85,
		visibility:  0.5 + rng.Float64()*9.5,
		description: fmt.Sprintf("Accident on highway exit %d", rng.Intn(400)),
	}
}

func weightedSeverity(rng *rand.Rand) int {
	total := 0
	for _, w := range severityWeights {
		total += w
	}
	n := rng.Intn(total)
	for sev, w := range severityWeights {
		if n < w {
			return sev + 1
		}
		n -= w
	}
	return 2
}

func randTime(rng *rand.Rand, startYear, years int) time.Time {
	year := startYear + rng.Intn(years)
	day := 1 + rng.Intn(365)
	// Rush hours get extra weight so hourly patterns have visible peaks.
	hour := rng.Intn(24)
	if rng.Intn(3) == 0 {
		peaks := []int{7, 8, 16, 17, 18}
		hour = peaks[rng.Intn(len(peaks))]
	}
	base := time.Date(year, time.January, 1, hour, rng.Intn(60), rng.Intn(60), 0, time.UTC)
	return base.AddDate(0, 0, day-1)
}

func cityFor(rng *rand.Rand, state string) string {
	if cs, ok := cities[state]; ok {
		return cs[rng.Intn(len(cs))]
	}
	return "Springfield"
}

// ── Stats for updating test assertions ──

type stats struct {
	severityCounts map[int]int
	stateCounts    map[string]int
	weatherCounts  map[string]int
	minTime        time.Time
	maxTime        time.Time
}

func newStats() *stats {
	return &stats{
		severityCounts: map[int]int{},
		stateCounts:    map[string]int{},
		weatherCounts:  map[string]int{},
	}
}

func (s *stats) add(r record) {
	s.severityCounts[r.severity]++
	s.stateCounts[r.state]++
	if r.weather != "" {
		s.weatherCounts[r.weather]++
	}
	if s.minTime.IsZero() || r.start.Before(s.minTime) {
		s.minTime = r.start
	}
	if r.start.After(s.maxTime) {
		s.maxTime = r.start
	}
}

func (s *stats) print() {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Severity: 1=%d 2=%d 3=%d 4=%d\n",
		s.severityCounts[1], s.severityCounts[2], s.severityCounts[3], s.severityCounts[4])
	fmt.Printf("Date range: %s to %s\n",
		s.minTime.Format("2006-01-02"), s.maxTime.Format("2006-01-02"))

	type count struct {
		key string
		n   int
	}
	top := func(m map[string]int, limit int) []count {
		cs := make([]count, 0, len(m))
		for k, n := range m {
			cs = append(cs, count{k, n})
		}
		sort.Slice(cs, func(i, j int) bool { return cs[i].n > cs[j].n })
		if len(cs) > limit {
			cs = cs[:limit]
		}
		return cs
	}

	fmt.Printf("Top states:")
	for _, c := range top(s.stateCounts, 5) {
		fmt.Printf(" %s=%d", c.key, c.n)
	}
	fmt.Printf("\nTop weather:")
	for _, c := range top(s.weatherCounts, 5) {
		fmt.Printf(" %s=%d", c.key, c.n)
	}
	fmt.Println()
}
