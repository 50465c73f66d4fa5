package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/macinstall/internal/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a package document without touching the machine",
	Long: `Parse the package document and print the records that would be processed.

Entries that fail validation are logged and left out of the table. The
command fails only when the document cannot be parsed at all.`,
	Example: `  # Check a document
  macinstall validate ~/packages.yaml

  # Show why entries were skipped
  macinstall validate -v ~/packages.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	RootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	records, source, err := loadRecords(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderRecordTable(records))
	fmt.Fprintf(out, "\n%d valid %s in %s\n", len(records), pluralize(len(records), "package", "packages"), source)
	return nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
