// Package watcher re-applies the package document whenever it changes.
//
// The watcher observes the directory containing the document with fsnotify,
// because editors often replace a file by renaming a temporary copy over it.
// Write, create and rename events naming the document start a debounce
// timer; when the timer fires one reconciliation pass runs. Passes run on
// the event goroutine, so they never overlap and events arriving during a
// pass are coalesced into the next one.
//
// Example usage:
//
//	w, err := watcher.New("/Users/me/packages.yaml", 2*time.Second, pass, logger)
//	if err != nil {
//		return err
//	}
//
//	// Run in the foreground until ctx is cancelled
//	if err := w.Run(ctx); err != nil {
//		return err
//	}
//
//	// Or start as daemon
//	if err := watcher.StartDaemon(pidFile, outFile, args); err != nil {
//		return err
//	}
package watcher
