package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/tweetsync/internal/importer"
	"github.com/pders01/tweetsync/internal/storage"
	"github.com/pders01/tweetsync/internal/tui"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(tui.MutedColor).Width(10)
	okStyle    = lipgloss.NewStyle().Foreground(tui.SuccessColor).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(tui.ErrorColor)
)

func printField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label), value)
}

func printFailures(w io.Writer, failures []string) {
	for _, f := range failures {
		fmt.Fprintln(w, failStyle.Render("✗ "+f))
	}
}

func printReport(w io.Writer, r importer.Report) {
	printField(w, "imported", okStyle.Render(fmt.Sprint(r.Imported)))
	printField(w, "skipped", r.Skipped)
	failures := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, f.String())
	}
	printFailures(w, failures)
}

func printRun(w io.Writer, run *storage.RunRecord) {
	printField(w, "run", run.ID)
	printField(w, "started", run.StartedAt.Local().Format(time.RFC1123))
	printField(w, "took", run.Duration().Round(time.Millisecond))
	printField(w, "imported", okStyle.Render(fmt.Sprint(run.Imported)))
	printField(w, "skipped", run.Skipped)
	printField(w, "deleted", run.Deleted)
	printFailures(w, run.Failures)
}
