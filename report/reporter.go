// Package report aggregates benchmark results and renders them to the
// console, JSON, CSV and Markdown.
package report

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"clinicbench/benchmark"

	"github.com/google/uuid"
)

const DefaultDir = "results"

type BackendSummary struct {
	TotalOperations  int              `json:"totalOperations"`
	AverageDuration  float64          `json:"averageDuration"` // ms
	TotalMemoryUsed  int64            `json:"totalMemoryUsed"` // bytes
	FastestOperation benchmark.Result `json:"fastestOperation"`
	SlowestOperation benchmark.Result `json:"slowestOperation"`
}

type Ranking struct {
	Backend  string  `json:"orm"`
	Duration float64 `json:"duration"`
	Rank     int     `json:"rank"`
}

type Report struct {
	ID            uuid.UUID                 `json:"id"`
	Timestamp     time.Time                 `json:"timestamp"`
	TotalDuration float64                   `json:"totalDuration"` // ms
	Results       []benchmark.Result        `json:"results"`
	Summary       map[string]BackendSummary `json:"summary"`
	Rankings      map[string][]Ranking      `json:"rankings"`
}

type BackendResults struct {
	Backend string
	Results []benchmark.Result
}

// Reporter collects the results of one run. It is not safe for concurrent use.
type Reporter struct {
	id      uuid.UUID
	dir     string
	start   time.Time
	end     time.Time
	now     func() time.Time
	results []benchmark.Result
}

// Creates a reporter whose run starts now. Relative output paths are placed
// under dir, DefaultDir when empty.
func New(dir string) *Reporter {
	if dir == "" {
		dir = DefaultDir
	}
	return &Reporter{id: uuid.New(), dir: dir, start: time.Now(), now: time.Now}
}

// Recreates the reporter that produced a saved report
func FromReport(r *Report, dir string) *Reporter {
	reporter := New(dir)
	reporter.id = r.ID
	reporter.start = r.Timestamp
	reporter.end = r.Timestamp.Add(time.Duration(r.TotalDuration * float64(time.Millisecond)))
	reporter.results = slices.Clone(r.Results)
	return reporter
}

func (r *Reporter) WithClock(now func() time.Time) *Reporter {
	r.now = now
	r.start = now()
	return r
}

func (r *Reporter) Add(results ...benchmark.Result) {
	r.results = append(r.results, results...)
}

func (r *Reporter) Results() []benchmark.Result {
	return slices.Clone(r.results)
}

// Milliseconds since the run started, frozen for a loaded report
func (r *Reporter) TotalDuration() float64 {
	end := r.end
	if end.IsZero() {
		end = r.now()
	}
	return float64(end.Sub(r.start)) / float64(time.Millisecond)
}

// Groups the results by backend, in the order each backend first appears
func (r *Reporter) GroupByBackend() []BackendResults {
	var groups []BackendResults
	index := map[string]int{}
	for _, result := range r.results {
		i, ok := index[result.Backend]
		if !ok {
			i = len(groups)
			index[result.Backend] = i
			groups = append(groups, BackendResults{Backend: result.Backend})
		}
		groups[i].Results = append(groups[i].Results, result)
	}
	return groups
}

func summarize(results []benchmark.Result) BackendSummary {
	var total float64
	var memory int64
	for _, result := range results {
		total += result.Duration
		if result.MemoryUsage != nil {
			memory += result.MemoryUsage.Used
		}
	}

	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b benchmark.Result) int { return cmp.Compare(a.Duration, b.Duration) })

	return BackendSummary{
		TotalOperations:  len(results),
		AverageDuration:  total / float64(len(results)),
		TotalMemoryUsed:  memory,
		FastestOperation: sorted[0],
		SlowestOperation: sorted[len(sorted)-1],
	}
}

func (r *Reporter) Summary() map[string]BackendSummary {
	summary := map[string]BackendSummary{}
	for _, group := range r.GroupByBackend() {
		summary[group.Backend] = summarize(group.Results)
	}
	return summary
}

// Operation labels in the order they were first reported
func (r *Reporter) Operations() []string {
	var operations []string
	for _, result := range r.results {
		if !slices.Contains(operations, result.Operation) {
			operations = append(operations, result.Operation)
		}
	}
	return operations
}

// Ranks the backends by duration for every operation, fastest first
func (r *Reporter) Rankings() map[string][]Ranking {
	rankings := map[string][]Ranking{}
	for _, operation := range r.Operations() {
		var ranking []Ranking
		for _, result := range r.results {
			if result.Operation == operation {
				ranking = append(ranking, Ranking{Backend: result.Backend, Duration: result.Duration})
			}
		}
		slices.SortStableFunc(ranking, func(a, b Ranking) int { return cmp.Compare(a.Duration, b.Duration) })
		for i := range ranking {
			ranking[i].Rank = i + 1
		}
		rankings[operation] = ranking
	}
	return rankings
}

func (r *Reporter) Report() *Report {
	results := r.Results()
	if results == nil {
		results = []benchmark.Result{}
	}
	return &Report{
		ID:            r.id,
		Timestamp:     r.start,
		TotalDuration: r.TotalDuration(),
		Results:       results,
		Summary:       r.Summary(),
		Rankings:      r.Rankings(),
	}
}

// Places relative paths under the results directory unless they already
// start with it
func (r *Reporter) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	clean := filepath.Clean(path)
	dir := filepath.Clean(r.dir)
	if clean == dir || strings.HasPrefix(clean, dir+string(filepath.Separator)) {
		return clean
	}
	return filepath.Join(dir, clean)
}
