package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clinicbench/benchmark"
	"clinicbench/util"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var csvHeader = []string{
	"ORM", "Operation", "Duration (ms)", "Total Records", "Average Time (ms)", "Memory Used (MB)", "Timestamp",
}

var numbers = message.NewPrinter(language.English)

func ms(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func perRecord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func records(n int64) string {
	return numbers.Sprintf("%d", n)
}

func memoryMB(result benchmark.Result) string {
	if result.MemoryUsage == nil {
		return "N/A"
	}
	return ms(util.MB(result.MemoryUsage.Used))
}

func opWithDuration(result benchmark.Result) string {
	return fmt.Sprintf("%s (%sms)", result.Operation, ms(result.Duration))
}

func (r *Reporter) write(path string, data []byte) (string, error) {
	path = r.resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, fmt.Errorf("save %s: %w", path, err)
	}
	zlog.Info().Str("path", path).Msg("Results saved")
	return path, nil
}

// Writes the full report as indented JSON and returns the path written
func (r *Reporter) SaveJSON(path string) (string, error) {
	data, err := json.MarshalIndent(r.Report(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return r.write(path, data)
}

func LoadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	report := new(Report)
	if err := json.Unmarshal(data, report); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return report, nil
}

func csvRow(cells []string) string {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// Writes one row per result with every field quoted
func (r *Reporter) SaveCSV(path string) (string, error) {
	lines := []string{csvRow(csvHeader)}
	for _, result := range r.results {
		lines = append(lines, csvRow([]string{
			result.Backend,
			result.Operation,
			ms(result.Duration),
			strconv.FormatInt(result.TotalRecords, 10),
			perRecord(result.AverageTime),
			memoryMB(result),
			result.Timestamp.UTC().Format(timestampLayout),
		}))
	}
	return r.write(path, []byte(strings.Join(lines, "\n")))
}

func (r *Reporter) Markdown() string {
	var b strings.Builder
	b.WriteString("# ORM Performance Benchmark Report\n\n")
	fmt.Fprintf(&b, "**Run:** %s  \n", r.id)
	fmt.Fprintf(&b, "**Generated:** %s  \n", r.now().Format(time.RFC1123))
	fmt.Fprintf(&b, "**Total Operations:** %d  \n", len(r.results))
	fmt.Fprintf(&b, "**Total Duration:** %.2fs\n\n", r.TotalDuration()/1000)

	b.WriteString("## Summary\n\n")
	b.WriteString("| ORM | Operations | Avg Duration (ms) | Memory (MB) | Best Performance | Worst Performance |\n")
	b.WriteString("|-----|------------|-------------------|-------------|------------------|-------------------|\n")
	groups := r.GroupByBackend()
	for _, group := range groups {
		s := summarize(group.Results)
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n", group.Backend, s.TotalOperations,
			ms(s.AverageDuration), ms(util.MB(s.TotalMemoryUsed)),
			opWithDuration(s.FastestOperation), opWithDuration(s.SlowestOperation))
	}

	b.WriteString("\n## Detailed Results\n\n")
	for _, group := range groups {
		fmt.Fprintf(&b, "### %s\n\n", group.Backend)
		b.WriteString("| Operation | Duration (ms) | Records | Avg/Record (ms) | Memory (MB) |\n")
		b.WriteString("|-----------|---------------|---------|-----------------|-------------|\n")
		for _, result := range group.Results {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", result.Operation, ms(result.Duration),
				records(result.TotalRecords), perRecord(result.AverageTime), memoryMB(result))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Reporter) SaveMarkdown(path string) (string, error) {
	return r.write(path, []byte(r.Markdown()))
}
