package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/config"
	"github.com/blackwell-systems/macinstall/internal/engine"
	"github.com/blackwell-systems/macinstall/internal/installer"
	"github.com/blackwell-systems/macinstall/internal/logging"
	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/runner"
	"github.com/blackwell-systems/macinstall/internal/store"
)

// defaultSource names the built-in package list in logs and run history.
const defaultSource = "default"

// newRunner creates the process runner for a command; tests replace it.
var newRunner = func(log zerolog.Logger) runner.Runner {
	return runner.NewExec(log)
}

// documentPath returns the package document a command should read, or ""
// for the built-in list.
func documentPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Packages.File
}

// loadRecords loads the valid records of the selected document and returns
// the name it was loaded from.
func loadRecords(args []string) ([]packages.Record, string, error) {
	path := documentPath(args)
	if path == "" {
		records, err := packages.LoadAll(packages.Default(), packages.FormatJSON, logger)
		return records, defaultSource, err
	}

	records, err := packages.LoadFile(path, logger)
	return records, path, err
}

// installerDeps builds the collaborators shared by every strategy.
func installerDeps() installer.Deps {
	return installer.Deps{
		Log:    logger,
		Runner: newRunner(logging.GetLogger(logger, "runner")),
		Paths: installer.Paths{
			StartupDir:   cfg.LocalCask.StartupDir,
			RepoURL:      cfg.LocalCask.RepoURL,
			Applications: cfg.Paths.Applications,
			Receipts:     cfg.Paths.Receipts,
			Trash:        cfg.Paths.Trash,
		},
	}
}

// observers fans one report out to several observers in order.
type observers []engine.Observer

func (o observers) Observe(r engine.Report) {
	for _, obs := range o {
		obs.Observe(r)
	}
}

// openHistory opens the run history database, creating it if needed.
func openHistory() (*store.Store, error) {
	db, err := store.Open(cfg.History.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// openExistingHistory opens the run history database for reading. It
// returns store.ErrNotInitialized when no run was ever recorded.
func openExistingHistory() (*store.Store, error) {
	if _, err := os.Stat(cfg.History.DB); errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNotInitialized
	}
	db, err := store.New(cfg.History.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// stateFile returns a file in the macinstall state directory, creating the
// directory if needed.
func stateFile(name string) (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", fmt.Errorf("failed to get state directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}
