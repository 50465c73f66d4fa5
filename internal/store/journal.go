package store

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/engine"
)

// Journal records one engine run. It implements engine.Observer.
type Journal struct {
	store    *Store
	runID    int64
	position int
	log      zerolog.Logger
	now      func() time.Time
}

// StartJournal opens a run for source and returns the observer that fills
// it. Call Finish when the run returns.
func (s *Store) StartJournal(source string, dryRun bool, log zerolog.Logger) (*Journal, error) {
	j := &Journal{store: s, log: log, now: time.Now}
	id, err := s.BeginRun(source, dryRun, j.now())
	if err != nil {
		return nil, err
	}
	j.runID = id
	return j, nil
}

// RunID is the id of the run being recorded.
func (j *Journal) RunID() int64 { return j.runID }

// Observe stores the report. Journal failures never affect the run; they are
// logged and dropped.
func (j *Journal) Observe(r engine.Report) {
	res := &Result{
		RunID:        j.runID,
		Position:     j.position,
		Name:         r.Record.Name,
		FullName:     r.Record.FullName,
		PackageType:  string(r.Record.Type),
		DesiredState: string(r.Record.State),
		Action:       string(r.Action),
		Outcome:      r.Outcome.String(),
	}
	if r.Err != nil {
		res.Error = r.Err.Error()
	}
	j.position++

	if err := j.store.InsertResult(res); err != nil {
		j.log.Warn().Err(err).Str("package", r.Record.Label()).Msg("Failed to record result")
	}
}

// Finish closes the run with the error the engine returned, if any.
func (j *Journal) Finish(runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return j.store.FinishRun(j.runID, j.now(), msg)
}
