package store

import "time"

// Run is one recorded reconciliation pass.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress or if it crashed
	Source     string    // package document path, or "default"
	DryRun     bool
	Error      string
}

// Finished reports whether the run was closed.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Result is the journal entry for one package of a run.
type Result struct {
	RunID        int64
	Position     int
	Name         string
	FullName     string
	PackageType  string
	DesiredState string
	Action       string // "install", "remove" or "none"
	Outcome      string // "unchanged", "changed" or "failed"
	Error        string
}
