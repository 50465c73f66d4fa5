package installer

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/mas"
	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/runner"
)

// Mas installs Mac App Store apps by store id.
type Mas struct {
	rec          packages.Record
	client       *mas.Client
	runner       runner.Runner
	applications string
	trash        string
	log          zerolog.Logger
}

// NewMas creates the App Store strategy.
func NewMas(rec packages.Record, deps Deps) *Mas {
	return &Mas{
		rec:          rec,
		client:       mas.NewClient(deps.Runner),
		runner:       deps.Runner,
		applications: deps.Paths.Applications,
		trash:        deps.Paths.Trash,
		log:          componentLogger(deps.Log, rec),
	}
}

// Record returns the package record.
func (m *Mas) Record() packages.Record { return m.rec }

// IsPresent reports whether the store id is listed by mas list.
func (m *Mas) IsPresent() (bool, error) {
	return m.client.IsInstalled(m.rec.MasID), nil
}

// Install installs the app through the App Store.
func (m *Mas) Install() (Outcome, error) {
	return reconcile(m.log, ActionInstall, true, m.IsPresent, func() runner.Result {
		return m.client.Install(m.rec.MasID)
	})
}

// Remove deletes /Applications/<name>.app directly. mas has no uninstall,
// so this bypasses the App Store entirely and empties the Trash afterwards.
func (m *Mas) Remove() (Outcome, error) {
	m.log.Warn().Msg("App Store removal is experimental and destructive: it force-deletes the app bundle and empties the Trash")

	outcome, err := reconcile(m.log, ActionRemove, false, m.IsPresent, func() runner.Result {
		if m.rec.Name == "" {
			return runner.Result{
				Stderr:     "record has no name; cannot locate the app bundle",
				StatusCode: runner.StatusNotStarted,
			}
		}
		app := filepath.Join(m.applications, m.rec.Name+".app")
		return m.runner.Run([]string{"sudo", "rm", "-rf", app}, "")
	})
	if err != nil || outcome != Changed {
		return outcome, err
	}

	m.emptyTrash()
	return Changed, nil
}

// emptyTrash is best effort; its result is ignored.
func (m *Mas) emptyTrash() {
	entries, err := runner.Glob(m.trash, "*")
	if err != nil || len(entries) == 0 {
		return
	}
	argv := append([]string{"sudo", "rm", "-rf"}, entries...)
	m.runner.Run(argv, "")
}
