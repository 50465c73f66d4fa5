package installer

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/brew"
	"github.com/blackwell-systems/macinstall/internal/localcask"
	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/runner"
)

// LocalCask installs casks defined in the private cask repository. The
// repository is synced before every install and remove. A package counts
// as present when its app bundle exists in the applications directory.
type LocalCask struct {
	rec          packages.Record
	client       *brew.Client
	repo         *localcask.Repo
	receipts     *localcask.Receipts
	applications string
	log          zerolog.Logger
}

// NewLocalCask creates the private cask strategy.
func NewLocalCask(rec packages.Record, deps Deps) *LocalCask {
	log := componentLogger(deps.Log, rec)
	return &LocalCask{
		rec:          rec,
		client:       brew.NewClient(deps.Runner),
		repo:         localcask.NewRepo(deps.Runner, log, deps.Paths.StartupDir, deps.Paths.RepoURL),
		receipts:     localcask.NewReceipts(deps.Runner, log, deps.Paths.Applications, deps.Paths.Receipts),
		applications: deps.Paths.Applications,
		log:          log,
	}
}

// Record returns the package record.
func (l *LocalCask) Record() packages.Record { return l.rec }

func (l *LocalCask) sync() error {
	if err := l.repo.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return nil
}

func (l *LocalCask) caskInfo() (*localcask.CaskInfo, error) {
	info, err := l.repo.CaskInfo(l.rec.Name)
	if err != nil {
		l.log.Error().Err(err).Msg("Can't determine application name from cask")
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return info, nil
}

func (l *LocalCask) appPresent(info *localcask.CaskInfo) bool {
	return exists(filepath.Join(l.applications, info.AppName))
}

// IsPresent reads the cask definition from the current clone and checks for
// the app bundle. It does not sync the repository.
func (l *LocalCask) IsPresent() (bool, error) {
	info, err := l.caskInfo()
	if err != nil {
		return false, err
	}
	return l.appPresent(info), nil
}

// Install syncs the repository and installs the cask from its definition
// file. With Force set an installed cask is reinstalled.
func (l *LocalCask) Install() (Outcome, error) {
	if err := l.sync(); err != nil {
		return Failed, err
	}
	info, err := l.caskInfo()
	if err != nil {
		return Failed, err
	}

	if l.appPresent(info) && !l.rec.Force {
		l.log.Info().Msg("Already installed")
		return Unchanged, nil
	}

	l.log.Info().Bool("force", l.rec.Force).Str("cask", info.Path).Msg("Installing")
	res := l.client.InstallCaskFile(info.File, info.Dir, l.rec.Force)
	if !res.Success {
		logCommandFailure(l.log, ActionInstall, res)
		return Failed, nil
	}

	if !l.appPresent(info) {
		l.log.Warn().
			Str("action", string(ActionInstall)).
			Str("app", info.AppName).
			Msg("Command reported success but verification disagrees")
		return Failed, nil
	}

	// the app is on disk; a receipts problem does not undo that
	if err := l.receipts.Process(info.AppName); err != nil {
		l.log.Error().Err(err).Msg("Receipts processing failed")
	}

	l.log.Info().Str("action", string(ActionInstall)).Msg("Succeeded")
	return Changed, nil
}

// Remove syncs the repository and uninstalls the cask.
func (l *LocalCask) Remove() (Outcome, error) {
	if err := l.sync(); err != nil {
		return Failed, err
	}
	return reconcile(l.log, ActionRemove, false, l.IsPresent, func() runner.Result {
		return l.client.Uninstall(brew.Cask, l.rec.Name)
	})
}
