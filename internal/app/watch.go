package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/macinstall/internal/installer"
	"github.com/blackwell-systems/macinstall/internal/output"
	"github.com/blackwell-systems/macinstall/internal/packages"
	"github.com/blackwell-systems/macinstall/internal/watcher"
)

const (
	pidFileName = "watch.pid"
	outFileName = "watch.out"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchStop        bool
	watchDryRun      bool
	watchRecord      bool
	watchInitial     bool

	watchCmd = &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-apply the package document whenever it changes",
		Long: `Watch the package document and run 'macinstall apply' each time it is saved.

Saves are debounced (watch.debounce in the config, 2s by default) so an editor
writing the file several times triggers a single run. Runs never overlap.

A document that fails to parse is logged and the watcher waits for the next
save. The watcher stops if the private cask repository cannot be used.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  macinstall watch ~/packages.yaml

  # Run as background daemon
  macinstall watch --daemon ~/packages.yaml

  # Stop running daemon
  macinstall watch --stop`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.local/state/macinstall/watch.pid)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "only show what would change")
	watchCmd.Flags().BoolVar(&watchRecord, "record", false, "record every run in the history database")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "apply once before waiting for changes")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPIDFile == "" {
		pidFile, err := stateFile(pidFileName)
		if err != nil {
			return err
		}
		watchPIDFile = pidFile
	}

	// Handle stop command
	if watchStop {
		return stopWatchDaemon(cmd.OutOrStdout())
	}

	path := documentPath(args)
	if path == "" {
		return errors.New("watch needs a package document: pass a file or set packages.file")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to read package document: %w", err)
	}

	// Handle daemon mode
	if watchDaemon {
		return startWatchDaemon(cmd.OutOrStdout())
	}

	w, err := watcher.New(path, cfg.Watch.Debounce, watchPass(path, cmd.OutOrStdout()), logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.RunOnStart = watchInitial

	// Handle daemon child process
	if watchDaemonChild {
		return w.RunDaemon(watchPIDFile)
	}

	// Run in foreground
	return runWatchForeground(cmd.OutOrStdout(), w)
}

// watchPass applies the document once. Only fatal errors are returned so a
// bad save never ends the watch.
func watchPass(path string, out io.Writer) watcher.Pass {
	return func(ctx context.Context) error {
		records, err := packages.LoadFile(path, logger)
		if err != nil {
			// already logged; wait for the next save
			return nil
		}

		err = applyRecords(out, records, path, watchDryRun, watchRecord)
		if errors.Is(err, installer.ErrFatal) {
			return err
		}
		if err != nil {
			logger.Error().Err(err).Msg("Run failed")
		}
		return nil
	}
}

func stopWatchDaemon(out io.Writer) error {
	// Check if daemon is running
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Fprintln(out, "Daemon stopped")

	return nil
}

func startWatchDaemon(out io.Writer) error {
	outFile, err := stateFile(outFileName)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner("Starting daemon...")
	spinner.Start()
	err = watcher.StartDaemon(watchPIDFile, outFile, daemonArgs(os.Args[1:]))
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Fprintf(out, "Watch daemon started\n")
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", cfg.Log.File)
	fmt.Fprintf(out, "\nTo stop: macinstall watch --stop\n")

	return nil
}

// daemonArgs is the child command line: the parent's arguments without
// --daemon.
func daemonArgs(args []string) []string {
	child := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--daemon" || arg == "--daemon=true" {
			continue
		}
		child = append(child, arg)
	}
	return child
}

func runWatchForeground(out io.Writer, w *watcher.Watcher) error {
	fmt.Fprintf(out, "Watching %s (press Ctrl+C to stop)...\n", w.Path())

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := w.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, "Watch stopped")
	return nil
}
