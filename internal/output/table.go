// Package output renders terminal tables and progress for macinstall.
//
// Tables use plain ASCII columns with ANSI colors when stdout is a terminal
// and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/macinstall/internal/engine"
	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/store"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderRecordTable renders loaded package records in document order.
func RenderRecordTable(records []packages.Record) string {
	if len(records) == 0 {
		return "No packages declared.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-14s %-12s %-8s %s\n",
		"Package", "Type", "Store ID", "State", "Force"))
	sb.WriteString(strings.Repeat("─", 68))
	sb.WriteString("\n")

	for _, rec := range records {
		force := ""
		if rec.Force {
			force = "yes"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-14s %-12s %-8s %s\n",
			truncate(rec.Label(), 24),
			rec.Type,
			dash(rec.MasID),
			rec.State,
			force))
	}

	return sb.String()
}

// RenderStatusTable renders current presence against the desired state.
func RenderStatusTable(statuses []engine.Status) string {
	if len(statuses) == 0 {
		return "No packages declared.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-14s %-8s %-10s %s\n",
		"Package", "Type", "Desired", "Current", "Status"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, st := range statuses {
		current := "absent"
		if st.Present {
			current = "present"
		}

		var status string
		switch {
		case st.Err != nil:
			current = "unknown"
			status = colorize(colorRed, "error: "+truncate(st.Err.Error(), 40))
		case inSync(st):
			status = colorize(colorGreen, "ok")
		case st.Record.State != packages.StatePresent && st.Record.State != packages.StateAbsent:
			status = colorize(colorGray, "ignored")
		default:
			status = colorize(colorYellow, "pending")
		}

		sb.WriteString(fmt.Sprintf("%-24s %-14s %-8s %-10s %s\n",
			truncate(st.Record.Label(), 24),
			st.Record.Type,
			st.Record.State,
			current,
			status))
	}

	return sb.String()
}

func inSync(st engine.Status) bool {
	switch st.Record.State {
	case packages.StatePresent:
		return st.Present
	case packages.StateAbsent:
		return !st.Present
	default:
		return false
	}
}

// RenderRunTable renders recorded runs, newest first. counts maps a run id
// to its outcome counts and may miss runs.
func RenderRunTable(runs []*store.Run, counts map[int64]map[string]int) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-17s %-9s %-8s %-8s %-7s %s\n",
		"ID", "Started", "Duration", "Changed", "Failed", "Mode", "Source"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, run := range runs {
		c := counts[run.ID]
		mode := "apply"
		if run.DryRun {
			mode = "dry-run"
		}

		duration := "running"
		if run.Finished() {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		if run.Error != "" {
			duration = colorize(colorRed, "aborted")
		}

		sb.WriteString(fmt.Sprintf("%-5d %-17s %-9s %-8d %-8d %-7s %s\n",
			run.ID,
			formatRelativeTime(run.StartedAt),
			duration,
			c["changed"],
			c["failed"],
			mode,
			truncate(run.Source, 30)))
	}

	return sb.String()
}

// RenderResultTable renders the per-package results of one run.
func RenderResultTable(results []*store.Result) string {
	if len(results) == 0 {
		return "No results recorded for this run.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-14s %-8s %-10s %s\n",
		"Package", "Type", "Action", "Outcome", "Error"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, r := range results {
		name := r.Name
		if name == "" {
			name = r.FullName
		}
		// pad before coloring so escape codes do not break alignment
		outcome := colorize(outcomeColor(r.Outcome), fmt.Sprintf("%-10s", r.Outcome))
		sb.WriteString(fmt.Sprintf("%-24s %-14s %-8s %s %s\n",
			truncate(name, 24),
			r.PackageType,
			r.Action,
			outcome,
			truncate(r.Error, 40)))
	}

	return sb.String()
}

// outcomeColor returns the ANSI color code for an outcome name.
func outcomeColor(outcome string) string {
	switch outcome {
	case "changed":
		return colorGreen
	case "failed":
		return colorRed
	default:
		return colorGray
	}
}

// RenderSummary renders one line counting the outcomes of a run.
func RenderSummary(counts map[string]int, dryRun bool) string {
	verb := "changed"
	if dryRun {
		verb = "to change"
	}
	return fmt.Sprintf("%d %s, %d unchanged, %d failed\n",
		counts["changed"], verb, counts["unchanged"], counts["failed"])
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
