package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"sqlcore/pkg/iterator"
	"sqlcore/pkg/planner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B5CF6")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)

	planStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
)

func renderTitle(w io.Writer, q query) {
	fmt.Fprintln(w, titleStyle.Render(q.name))
	fmt.Fprintln(w, mutedStyle.Render(q.description))
}

func renderSection(w io.Writer, name, body string) {
	fmt.Fprintln(w, sectionStyle.Render(name))
	fmt.Fprintln(w, planStyle.Render(strings.TrimRight(body, "\n")))
}

// renderOperators prints the physical operator tree, one operator per line.
func renderOperators(op iterator.DbIterator) string {
	var sb strings.Builder
	writeOperator(&sb, op, 0)
	return sb.String()
}

func writeOperator(sb *strings.Builder, op iterator.DbIterator, depth int) {
	name := fmt.Sprintf("%T", op)
	name = name[strings.LastIndex(name, ".")+1:]
	fmt.Fprintf(sb, "%s%s %s\n", strings.Repeat("  ", depth), name, op.Schema())

	switch n := op.(type) {
	case interface{ Child() iterator.DbIterator }:
		writeOperator(sb, n.Child(), depth+1)
	case interface {
		Outer() iterator.DbIterator
		Inner() iterator.DbIterator
	}:
		writeOperator(sb, n.Outer(), depth+1)
		writeOperator(sb, n.Inner(), depth+1)
	}
}

func renderResult(w io.Writer, res *planner.QueryResult) {
	header := make([]string, res.Schema.NumColumns())
	for i, c := range res.Schema.Columns() {
		header[i] = c.QualifiedName()
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	for _, t := range res.Tuples {
		fields := t.Fields()
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = f.String()
		}
		table.Append(row)
	}
	table.Render()

	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("(%s row%s in %s)",
		humanize.Comma(int64(len(res.Tuples))), plural(len(res.Tuples)), res.Duration.Round(time.Microsecond))))
}

type benchResult struct {
	strategy string
	rows     int
	duration time.Duration
	err      error
}

func renderBench(w io.Writer, results []benchResult) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"strategy", "rows", "time", "error"})
	for _, r := range results {
		errText := ""
		if r.err != nil {
			errText = r.err.Error()
		}
		table.Append([]string{
			r.strategy,
			humanize.Comma(int64(r.rows)),
			r.duration.Round(time.Microsecond).String(),
			errText,
		})
	}
	table.Render()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
