// Package engine drives every declared package towards its desired state.
package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/installer"
	"github.com/blackwell-systems/macinstall/internal/logging"
	"github.com/blackwell-systems/macinstall/internal/packages"
)

// Report describes what happened to one package during a run.
type Report struct {
	Record  packages.Record
	Action  installer.Action
	Outcome installer.Outcome
	// DryRun marks an outcome that was predicted rather than performed.
	DryRun bool
	Err    error
}

// Observer receives a Report for every package the engine processes, in
// document order.
type Observer interface {
	Observe(Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Report)

// Observe calls f(r).
func (f ObserverFunc) Observe(r Report) { f(r) }

// Options tune a run.
type Options struct {
	// DryRun only queries presence and logs the action that would run.
	DryRun bool
	// Observer is optional.
	Observer Observer
}

// Status is the current presence of one package.
type Status struct {
	Record  packages.Record
	Present bool
	Err     error
}

// Pending reports whether a run would act on the package.
func (s Status) Pending() bool {
	if s.Err != nil {
		return false
	}
	switch s.Record.State {
	case packages.StatePresent:
		return !s.Present
	case packages.StateAbsent:
		return s.Present
	default:
		return false
	}
}

// Engine reconciles package records against the machine.
type Engine struct {
	deps installer.Deps
	opts Options
	log  zerolog.Logger
}

// New creates an Engine. Every run builds its own strategies from deps.
func New(deps installer.Deps, opts Options) *Engine {
	return &Engine{
		deps: deps,
		opts: opts,
		log:  deps.Log.With().Str("component", "engine").Logger(),
	}
}

// RunDocument loads doc and runs the valid records it contains.
func (e *Engine) RunDocument(doc []byte, format packages.Format) error {
	records, err := packages.LoadAll(doc, format, e.deps.Log)
	if err != nil {
		return err
	}
	return e.Run(records)
}

// Run processes records in order. A failed package never stops the run; an
// error wrapping installer.ErrFatal does, and is returned.
func (e *Engine) Run(records []packages.Record) error {
	defer logging.LogOperationStart(e.log, "run")()

	installers := installer.BuildAll(records, e.deps)
	if skipped := len(records) - len(installers); skipped > 0 {
		e.log.Debug().Int("skipped", skipped).Msg("Records without a strategy were skipped")
	}

	e.log.Info().Int("packages", len(installers)).Bool("dry_run", e.opts.DryRun).Msg("Starting run")
	for _, inst := range installers {
		report := e.apply(inst)
		e.observe(report)
		if !report.DryRun && errors.Is(report.Err, installer.ErrFatal) {
			e.log.Error().Err(report.Err).Str("package", report.Record.Label()).Msg("Stopping run")
			return fmt.Errorf("%s: %w", report.Record.Label(), report.Err)
		}
	}
	e.log.Info().Msg("Run complete")
	return nil
}

func (e *Engine) apply(inst installer.Installer) Report {
	rec := inst.Record()
	report := Report{
		Record: rec,
		Action: installer.ActionFor(rec.State),
		DryRun: e.opts.DryRun,
	}

	if e.opts.DryRun {
		return e.predict(inst, report)
	}

	switch report.Action {
	case installer.ActionInstall:
		report.Outcome, report.Err = inst.Install()
	case installer.ActionRemove:
		report.Outcome, report.Err = inst.Remove()
	default:
		e.log.Debug().Str("package", rec.Label()).Str("state", string(rec.State)).Msg("No action for state")
		report.Outcome = installer.Unchanged
	}
	return report
}

// predict fills report with the outcome a real run would produce. Presence
// errors are reported but never stop a dry run since nothing is modified.
func (e *Engine) predict(inst installer.Installer, report Report) Report {
	report.Outcome = installer.Unchanged
	if report.Action == installer.ActionNone {
		return report
	}

	present, err := inst.IsPresent()
	if err != nil {
		e.log.Warn().Err(err).Str("package", report.Record.Label()).Msg("Cannot determine presence")
		report.Outcome = installer.Failed
		report.Err = err
		return report
	}

	want := report.Action == installer.ActionInstall
	if present != want || (want && report.Record.Force && report.Record.Type == packages.TypeBrewCaskLocal) {
		report.Outcome = installer.Changed
		e.log.Info().
			Str("package", report.Record.Label()).
			Str("action", string(report.Action)).
			Msg("Would run")
	}
	return report
}

func (e *Engine) observe(r Report) {
	if e.opts.Observer != nil {
		e.opts.Observer.Observe(r)
	}
}

// Plan reports the presence of every record that has a strategy. It runs
// only query commands.
func (e *Engine) Plan(records []packages.Record) []Status {
	installers := installer.BuildAll(records, e.deps)
	statuses := make([]Status, 0, len(installers))
	for _, inst := range installers {
		present, err := inst.IsPresent()
		statuses = append(statuses, Status{Record: inst.Record(), Present: present, Err: err})
	}
	return statuses
}
