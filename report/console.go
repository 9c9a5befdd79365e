package report

import (
	"fmt"
	"io"
	"strconv"

	"clinicbench/util"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	backendStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
)

// Columns at or after firstNumeric are right aligned
func newTable(firstNumeric int, lastNumeric int, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(ruleStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= firstNumeric && col <= lastNumeric:
				return numberStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...)
}

// Prints one table per backend followed by the comparison table
func (r *Reporter) Print(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("\nORM Performance Benchmark Results"))
	fmt.Fprintln(w, ruleStyle.Render(fmt.Sprintf("%80s", "")))

	for _, group := range r.GroupByBackend() {
		fmt.Fprintln(w, backendStyle.Render(fmt.Sprintf("\n%s Results:", group.Backend)))
		t := newTable(1, 4, "Operation", "Duration (ms)", "Records", "Avg/Record (ms)", "Memory (MB)")
		for _, result := range group.Results {
			t.Row(result.Operation, ms(result.Duration), records(result.TotalRecords),
				perRecord(result.AverageTime), memoryMB(result))
		}
		fmt.Fprintln(w, t.String())
	}

	r.printComparison(w)
}

func (r *Reporter) printComparison(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("\nORM Performance Comparison"))
	t := newTable(1, 3, "ORM", "Operations", "Avg Duration (ms)", "Memory (MB)", "Fastest Op", "Slowest Op")
	for _, group := range r.GroupByBackend() {
		s := summarize(group.Results)
		t.Row(group.Backend, strconv.Itoa(s.TotalOperations), ms(s.AverageDuration),
			ms(util.MB(s.TotalMemoryUsed)), opWithDuration(s.FastestOperation), opWithDuration(s.SlowestOperation))
	}
	fmt.Fprintln(w, t.String())
}

// Prints the backends ranked by duration for every operation
func (r *Reporter) PrintRankings(w io.Writer) {
	rankings := r.Rankings()
	fmt.Fprintln(w, titleStyle.Render("\nRankings"))
	t := newTable(3, 3, "Operation", "Rank", "ORM", "Duration (ms)")
	for _, operation := range r.Operations() {
		for _, ranking := range rankings[operation] {
			t.Row(operation, strconv.Itoa(ranking.Rank), ranking.Backend, ms(ranking.Duration))
		}
	}
	fmt.Fprintln(w, t.String())
}
