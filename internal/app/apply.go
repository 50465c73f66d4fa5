package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/macinstall/internal/engine"
	"github.com/blackwell-systems/macinstall/internal/output"
	"github.com/blackwell-systems/macinstall/internal/packages"
)

var (
	applyDryRun bool
	applyRecord bool

	applyCmd = &cobra.Command{
		Use:   "apply [file]",
		Short: "Install and remove packages to match the document",
		Long: `Bring every package in the document to its desired state.

Packages are processed in document order. A package that fails to install or
remove is reported and the run moves on to the next one. The run stops early
only when the private cask repository cannot be used, since every later local
cask would fail the same way.

Invalid entries (unknown package_type, missing name or mas_id) are logged and
skipped. A document that cannot be parsed at all is an error and nothing is
changed.

With --dry-run only list commands are executed and the packages that would
change are printed.

With --record, or history.enabled in the config, the run and each package
outcome are stored in the history database (see 'macinstall history').`,
		Example: `  # Apply the built-in package list
  macinstall apply

  # Preview changes
  macinstall apply --dry-run ~/packages.yaml

  # Apply and keep a record
  macinstall apply --record ~/packages.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runApply,
	}
)

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "only show what would change")
	applyCmd.Flags().BoolVar(&applyRecord, "record", false, "record the run in the history database")

	RootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	records, source, err := loadRecords(args)
	if err != nil {
		return err
	}
	return applyRecords(cmd.OutOrStdout(), records, source, applyDryRun, applyRecord)
}

// applyRecords runs the engine over records, printing progress to w and
// journaling the run when history is on. It returns the engine's fatal error.
func applyRecords(w io.Writer, records []packages.Record, source string, dryRun, record bool) (runErr error) {
	progress := output.NewRunProgress(len(records), dryRun)
	progress.SetWriter(w)
	obs := observers{progress}

	if record || cfg.History.Enabled {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		journal, err := db.StartJournal(source, dryRun, logger)
		if err != nil {
			return fmt.Errorf("failed to start run record: %w", err)
		}
		obs = append(obs, journal)
		defer func() {
			if err := journal.Finish(runErr); err != nil {
				logger.Warn().Err(err).Int64("run", journal.RunID()).Msg("Failed to finish run record")
			}
		}()
	}

	eng := engine.New(installerDeps(), engine.Options{DryRun: dryRun, Observer: obs})
	runErr = eng.Run(records)
	progress.Finish()
	return runErr
}
