package installer

import (
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/brew"
	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/runner"
)

// Brew installs Homebrew formulae (kind brew.Formula) or casks from the
// public registry (kind brew.Cask). Presence is an exact line match in the
// corresponding list command.
type Brew struct {
	rec    packages.Record
	kind   brew.Kind
	client *brew.Client
	log    zerolog.Logger
}

// NewBrew creates the formula strategy.
func NewBrew(rec packages.Record, deps Deps) *Brew {
	return newBrew(rec, brew.Formula, deps)
}

// NewCask creates the cask strategy.
func NewCask(rec packages.Record, deps Deps) *Brew {
	return newBrew(rec, brew.Cask, deps)
}

func newBrew(rec packages.Record, kind brew.Kind, deps Deps) *Brew {
	return &Brew{
		rec:    rec,
		kind:   kind,
		client: brew.NewClient(deps.Runner),
		log:    componentLogger(deps.Log, rec),
	}
}

// Record returns the package record.
func (b *Brew) Record() packages.Record { return b.rec }

// IsPresent reports whether the package is listed. Never fails.
func (b *Brew) IsPresent() (bool, error) {
	return b.client.IsInstalled(b.kind, b.rec.Name), nil
}

// Install installs the package unless it is already listed.
func (b *Brew) Install() (Outcome, error) {
	return reconcile(b.log, ActionInstall, true, b.IsPresent, func() runner.Result {
		return b.client.Install(b.kind, b.rec.Name)
	})
}

// Remove uninstalls the package if it is listed.
func (b *Brew) Remove() (Outcome, error) {
	return reconcile(b.log, ActionRemove, false, b.IsPresent, func() runner.Result {
		return b.client.Uninstall(b.kind, b.rec.Name)
	})
}
