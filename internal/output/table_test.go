package output

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/macinstall/internal/engine"
	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/store"
)

func TestIsColorEnabled_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if IsColorEnabled() {
		t.Error("IsColorEnabled() = true with NO_COLOR set")
	}
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("colorize() = %q, want plain text", got)
	}
}

func TestRenderRecordTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := RenderRecordTable(nil); got != "No packages declared.\n" {
		t.Errorf("empty table = %q", got)
	}

	out := RenderRecordTable([]packages.Record{
		{FullName: "Atom", Name: "atom", Type: packages.TypeBrewCask, State: packages.StatePresent},
		{Name: "Keep It", Type: packages.TypeMas, MasID: "1272768911", State: packages.StateAbsent},
		{Name: "myapp", Type: packages.TypeBrewCaskLocal, State: packages.StatePresent, Force: true},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, rule and 3 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Package") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "atom") || !strings.Contains(lines[2], "brewcask") || !strings.Contains(lines[2], " - ") {
		t.Errorf("atom row = %q", lines[2])
	}
	if !strings.Contains(lines[3], "1272768911") || !strings.Contains(lines[3], "absent") {
		t.Errorf("Keep It row = %q", lines[3])
	}
	if !strings.HasSuffix(lines[4], "yes") {
		t.Errorf("forced row = %q", lines[4])
	}
}

func TestRenderStatusTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := RenderStatusTable([]engine.Status{
		{Record: packages.Record{Name: "wget", Type: packages.TypeBrew, State: packages.StatePresent}, Present: true},
		{Record: packages.Record{Name: "lzip", Type: packages.TypeBrew, State: packages.StateAbsent}, Present: true},
		{Record: packages.Record{Name: "atom", Type: packages.TypeBrewCask, State: "latest"}},
		{Record: packages.Record{Name: "myapp", Type: packages.TypeBrewCaskLocal, State: packages.StatePresent}, Err: errors.New("cask definition not found")},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}

	tests := []struct {
		line int
		want string
	}{
		{2, "ok"},
		{3, "pending"},
		{4, "ignored"},
		{5, "error: cask definition not found"},
	}
	for _, tt := range tests {
		if !strings.HasSuffix(lines[tt.line], tt.want) {
			t.Errorf("line %d = %q, want suffix %q", tt.line, lines[tt.line], tt.want)
		}
	}
	if !strings.Contains(lines[5], "unknown") {
		t.Errorf("errored row should show unknown presence: %q", lines[5])
	}
}

func TestRenderRunTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := RenderRunTable(nil, nil); got != "No runs recorded.\n" {
		t.Errorf("empty table = %q", got)
	}

	started := time.Now().Add(-3 * time.Hour)
	runs := []*store.Run{
		{ID: 2, StartedAt: started, FinishedAt: started.Add(75 * time.Second), Source: "default", DryRun: true},
		{ID: 1, StartedAt: started.Add(-time.Hour), Source: "/Users/me/packages.yaml", Error: "myapp: clone failed"},
	}
	counts := map[int64]map[string]int{2: {"changed": 4, "failed": 1}}

	out := RenderRunTable(runs, counts)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	for _, want := range []string{"3 hours ago", "1m15s", "4", "1", "dry-run", "default"} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("run 2 row %q missing %q", lines[2], want)
		}
	}
	for _, want := range []string{"aborted", "apply", "packages.yaml"} {
		if !strings.Contains(lines[3], want) {
			t.Errorf("run 1 row %q missing %q", lines[3], want)
		}
	}
}

func TestRenderResultTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := RenderResultTable([]*store.Result{
		{Name: "wget", PackageType: "brew", Action: "install", Outcome: "changed"},
		{FullName: "Keep It", PackageType: "mas", Action: "remove", Outcome: "failed", Error: "record has no name"},
	})
	if !strings.Contains(out, "wget") || !strings.Contains(out, "changed") {
		t.Errorf("missing wget row:\n%s", out)
	}
	if !strings.Contains(out, "Keep It") || !strings.Contains(out, "record has no name") {
		t.Errorf("missing Keep It row:\n%s", out)
	}
	if got := RenderResultTable(nil); !strings.Contains(got, "No results") {
		t.Errorf("empty table = %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	counts := map[string]int{"changed": 2, "unchanged": 5, "failed": 1}
	if got := RenderSummary(counts, false); got != "2 changed, 5 unchanged, 1 failed\n" {
		t.Errorf("RenderSummary() = %q", got)
	}
	if got := RenderSummary(counts, true); got != "2 to change, 5 unchanged, 1 failed\n" {
		t.Errorf("RenderSummary(dryRun) = %q", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute + time.Second, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{2 * time.Hour, "2 hours ago"},
		{25 * time.Hour, "1 day ago"},
		{15 * 24 * time.Hour, "2 weeks ago"},
		{60 * 24 * time.Hour, "2 months ago"},
		{400 * 24 * time.Hour, "1 year ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(time.Now().Add(-tt.ago)); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if got := formatRelativeTime(time.Time{}); got != "never" {
		t.Errorf("zero time = %q, want never", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
