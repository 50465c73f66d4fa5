// Package installer implements one idempotent install/remove strategy per
// package type and the dispatcher that picks the strategy for a record.
//
// Every strategy follows the same state machine: query the current state,
// do nothing when it already matches, otherwise run the package-manager
// command and query again. An action only counts as done when the command
// succeeded and the second query confirms the new state.
package installer

import (
	"errors"
	"os"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/runner"
)

// ErrFatal marks an environment failure that makes every further local
// operation untrustworthy. The engine stops the whole run when it sees one.
var ErrFatal = errors.New("unrecoverable environment error")

// Outcome is the result of a single Install or Remove call.
type Outcome int

const (
	// Unchanged means the desired state already held; nothing was run.
	Unchanged Outcome = iota
	// Changed means the action ran and the new state was verified.
	Changed
	// Failed means the command failed or verification disagreed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action is what the engine asked a strategy to do.
type Action string

const (
	ActionInstall Action = "install"
	ActionRemove  Action = "remove"
	ActionNone    Action = "none"
)

// ActionFor maps a desired state to the action that reaches it.
func ActionFor(state packages.State) Action {
	switch state {
	case packages.StatePresent:
		return ActionInstall
	case packages.StateAbsent:
		return ActionRemove
	default:
		return ActionNone
	}
}

// Installer drives one package towards its desired state.
//
// The error results are reserved for failures wrapping ErrFatal. Ordinary
// command failures are reported as a Failed outcome with a nil error.
type Installer interface {
	Record() packages.Record
	IsPresent() (bool, error)
	Install() (Outcome, error)
	Remove() (Outcome, error)
}

// Paths holds the filesystem locations strategies touch.
type Paths struct {
	// StartupDir receives the private cask repository clone.
	StartupDir string
	// RepoURL is the private cask repository.
	RepoURL string
	// Applications is where apps are installed (/Applications).
	Applications string
	// Receipts is where receipts archives are unpacked.
	Receipts string
	// Trash is emptied after a store app is removed.
	Trash string
}

// Deps are the collaborators borrowed by every strategy.
type Deps struct {
	Log    zerolog.Logger
	Runner runner.Runner
	Paths  Paths
}

// reconcile runs the shared state machine. want is the presence the action
// should produce.
func reconcile(log zerolog.Logger, action Action, want bool, present func() (bool, error), run func() runner.Result) (Outcome, error) {
	have, err := present()
	if err != nil {
		return Failed, err
	}
	if have == want {
		if want {
			log.Info().Msg("Already installed")
		} else {
			log.Info().Msg("Not installed")
		}
		return Unchanged, nil
	}

	if want {
		log.Info().Msg("Installing")
	} else {
		log.Info().Msg("Removing")
	}

	res := run()
	if !res.Success {
		logCommandFailure(log, action, res)
		return Failed, nil
	}

	have, err = present()
	if err != nil {
		return Failed, err
	}
	if have != want {
		log.Warn().
			Str("action", string(action)).
			Bool("present", have).
			Msg("Command reported success but verification disagrees")
		return Failed, nil
	}

	log.Info().Str("action", string(action)).Msg("Succeeded")
	return Changed, nil
}

func logCommandFailure(log zerolog.Logger, action Action, res runner.Result) {
	log.Error().
		Str("action", string(action)).
		Int("status", res.StatusCode).
		Str("stdout", res.Stdout).
		Str("stderr", res.Stderr).
		Msg("Command failed")
}

func componentLogger(log zerolog.Logger, rec packages.Record) zerolog.Logger {
	return log.With().
		Str("installer", string(rec.Type)).
		Str("package", rec.Label()).
		Logger()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
