package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/macinstall/internal/engine"
	"github.com/blackwell-systems/macinstall/internal/output"
	"github.com/blackwell-systems/macinstall/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status [file]",
	Short: "Compare the package document with the machine",
	Long: `Query every package manager for the packages in the document and show
whether each one is already in its desired state.

Only list commands are executed; nothing is installed or removed.

Status column:
  • ok       desired state already holds
  • pending  'macinstall apply' would change it
  • ignored  state is neither present nor absent
  • error    presence could not be determined

The watch daemon state is shown at the end.`,
	Example: `  # Check the built-in list
  macinstall status

  # Check a document
  macinstall status ~/packages.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	// Register with root command
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	records, _, err := loadRecords(args)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner("Checking packages...")
	spinner.Start()
	statuses := engine.New(installerDeps(), engine.Options{}).Plan(records)
	spinner.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderStatusTable(statuses))

	pending := 0
	for _, st := range statuses {
		if st.Pending() {
			pending++
		}
	}
	fmt.Fprintf(out, "\n%d of %d %s pending\n", pending, len(statuses), pluralize(len(statuses), "package", "packages"))

	pidFile, err := stateFile(pidFileName)
	if err != nil {
		return err
	}
	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		fmt.Fprintln(out, "Watch daemon: running")
	} else {
		fmt.Fprintln(out, "Watch daemon: not running")
	}
	return nil
}
