package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/serpent-os/ent/pkg/report"
)

var (
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleUpdate  = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailure = lipgloss.NewStyle().Foreground(colorRed)
	styleSkip    = lipgloss.NewStyle().Foreground(colorDim)
)

// renderReport writes the report as a table. Only updates and errors are
// listed unless all is set.
func renderReport(w io.Writer, rep *report.Report, all bool, took time.Duration) {
	var rows []report.Entry
	rows = append(rows, rep.Updates()...)
	rows = append(rows, rep.Errors()...)
	if all {
		rows = append(rows, rep.Current()...)
		rows = append(rows, rep.Skipped()...)
	}

	if len(rows) > 0 {
		fmt.Fprintln(w, entryTable(rows).Render())
	}

	if len(rep.Diagnostics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleTitle.Render("Unreadable recipes"))
		for _, d := range rep.Diagnostics {
			fmt.Fprintf(w, "%s %s %s\n", styleIconError.Render(iconError), StyleValue.Render(d.Path), StyleDim.Render(string(d.Code)+": "+d.Message))
		}
	}

	fmt.Fprintln(w)
	printSummary(w, rep, took)
}

func entryTable(rows []report.Entry) *table.Table {
	data := make([][]string, len(rows))
	for i, e := range rows {
		data[i] = []string{e.Name, e.Current, latestColumn(e), statusColumn(e.Outcome), e.Source}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Recipe", "Current", "Latest", "Status", "Source").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			if row < 0 || row >= len(rows) {
				return base
			}
			switch {
			case col == 4:
				return base.Foreground(colorDim)
			case col != 2 && col != 3:
				return base
			}
			switch rows[row].Outcome.Kind {
			case report.KindUpdateAvailable:
				return base.Inherit(styleUpdate)
			case report.KindError:
				return base.Inherit(styleFailure)
			case report.KindSkipped:
				return base.Inherit(styleSkip)
			}
			return base
		})
}

func latestColumn(e report.Entry) string {
	if e.Latest == "" {
		return "—"
	}
	return e.Latest
}

func statusColumn(o report.Outcome) string {
	switch o.Kind {
	case report.KindUpdateAvailable:
		return "update"
	case report.KindUpToDate:
		return "current"
	default:
		return strings.ToLower(strings.ReplaceAll(string(o.Reason), "_", " "))
	}
}

// printSummary writes the one-line run summary. took is omitted when zero.
func printSummary(w io.Writer, rep *report.Report, took time.Duration) {
	s := rep.Summary
	parts := []string{
		count(s.Total, "recipe"),
		styleUpdate.Render(count(s.Updates, "update")),
		humanize.Comma(int64(s.UpToDate)) + " current",
	}
	if s.Errors > 0 {
		parts = append(parts, styleFailure.Render(count(s.Errors, "error")))
	}
	if s.Skipped > 0 {
		parts = append(parts, humanize.Comma(int64(s.Skipped))+" skipped")
	}
	if s.Diagnostics > 0 {
		parts = append(parts, count(s.Diagnostics, "unreadable manifest"))
	}

	line := strings.Join(parts, StyleDim.Render(" · "))
	if took > 0 {
		line += StyleDim.Render(" in " + took.Round(time.Millisecond).String())
	}
	fmt.Fprintln(w, line)
}

// count formats n with thousands separators and a naive plural.
func count(n int, noun string) string {
	if n != 1 {
		noun += "s"
	}
	return humanize.Comma(int64(n)) + " " + noun
}
