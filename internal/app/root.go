package app

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/macinstall/internal/config"
	"github.com/blackwell-systems/macinstall/internal/logging"
)

var (
	configPath string
	dbPath     string
	verbosity  int
	quiet      bool

	// set by the persistent pre-run
	cfg       *config.Config
	logger    = zerolog.Nop()
	logCloser io.Closer

	// logConsole receives console log output; tests replace it.
	logConsole io.Writer = os.Stderr

	// RootCmd is the root command for macinstall
	RootCmd = &cobra.Command{
		Use:   "macinstall",
		Short: "Declarative package installation for macOS",
		Long: `macinstall reads a list of packages with their desired state and brings
the machine in line with it, one package at a time.

Supported package types:
  • brew           Homebrew formulae
  • brewcask       Homebrew casks
  • brewcasklocal  casks from a private git repository
  • mas            Mac App Store apps

Each entry is either present (installed if missing) or absent (removed if
installed). Packages already in the desired state are left alone, so running
macinstall twice is safe.

Without a file argument the document named by packages.file in the config is
used, or the built-in package list when that is empty.

Examples:
  # Show what would change
  macinstall apply --dry-run packages.json

  # Apply and record the run in the history database
  macinstall apply --record packages.yaml

  # Compare the document with the machine
  macinstall status packages.json

  # Re-apply whenever the document is saved
  macinstall watch --daemon packages.json`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/macinstall/config.toml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (default: ~/.macinstall/history.db)")
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")
	RootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "only log warnings and errors")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	defer closeLog()
	return RootCmd.Execute()
}

// setup loads the configuration and builds the logger every command uses.
func setup(cmd *cobra.Command, args []string) error {
	overrides := map[string]interface{}{}
	if dbPath != "" {
		overrides["history.db"] = dbPath
	}

	loaded, err := config.Load(config.Options{Path: configPath, Overrides: overrides})
	if err != nil {
		return err
	}
	cfg = loaded

	closeLog()
	logger, logCloser = logging.Setup(logging.Options{
		Verbosity:  verbosity,
		Quiet:      quiet,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    logConsole,
		NoColor:    !consoleIsTTY(),
	})
	logger.Debug().Str("command", cmd.Name()).Strs("args", args).Msg("Configuration loaded")
	return nil
}

func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

func consoleIsTTY() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := logConsole.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
