package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/macinstall/internal/output"
	"github.com/blackwell-systems/macinstall/internal/store"
)

var (
	historyLimit int
	historyRun   int64
	historyPrune time.Duration

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long: `List runs recorded in the history database, newest first, or the package
results of a single run.

Runs are recorded by 'macinstall apply --record' or when history.enabled is
set in the config. --prune deletes runs older than the given age together
with their results.`,
		Example: `  # Last ten runs
  macinstall history

  # Every run
  macinstall history --limit 0

  # What happened in run 12
  macinstall history --run 12

  # Forget runs older than 30 days
  macinstall history --prune 720h`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of runs to show (0 for all)")
	historyCmd.Flags().Int64Var(&historyRun, "run", 0, "show the package results of this run")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than this age (e.g. 720h)")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyPrune < 0 {
		return fmt.Errorf("--prune must not be negative, got %s", historyPrune)
	}

	db, err := openExistingHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	if historyPrune > 0 {
		return pruneRuns(cmd, db, historyPrune)
	}

	if historyRun > 0 {
		return showRun(cmd, db, historyRun)
	}

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	counts := make(map[int64]map[string]int, len(runs))
	for _, run := range runs {
		c, err := db.OutcomeCounts(run.ID)
		if err != nil {
			return err
		}
		counts[run.ID] = c
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderRunTable(runs, counts))
	return nil
}

func showRun(cmd *cobra.Command, db *store.Store, id int64) error {
	run, err := db.GetRun(id)
	if err != nil {
		return err
	}
	results, err := db.GetResults(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mode := "apply"
	if run.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(out, "Run %d (%s) from %s\n", run.ID, mode, run.Source)
	fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.Finished() {
		fmt.Fprintf(out, "Finished: %s\n", run.FinishedAt.Local().Format(time.DateTime))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Aborted: %s\n", run.Error)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderResultTable(results))
	return nil
}

func pruneRuns(cmd *cobra.Command, db *store.Store, age time.Duration) error {
	n, err := db.DeleteRunsBefore(time.Now().Add(-age))
	if err != nil {
		return err
	}
	logger.Info().Int64("runs", n).Dur("age", age).Msg("Pruned run history")
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s older than %s\n", n, pluralize(int(n), "run", "runs"), age)
	return nil
}
