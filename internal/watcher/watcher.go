package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Pass runs one reconciliation. A returned error stops the watcher; passes
// should log recoverable problems and return nil.
type Pass func(ctx context.Context) error

// Watcher triggers a Pass whenever the watched document changes.
type Watcher struct {
	path     string
	debounce time.Duration
	pass     Pass
	log      zerolog.Logger

	// RunOnStart runs a pass before waiting for the first change.
	RunOnStart bool
}

// New creates a Watcher for the document at path.
func New(path string, debounce time.Duration, pass Pass, log zerolog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watcher: document path cannot be empty")
	}
	if pass == nil {
		return nil, errors.New("watcher: pass cannot be nil")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve %s: %w", path, err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		pass:     pass,
		log:      log.With().Str("component", "watcher").Str("document", abs).Logger(),
	}, nil
}

// Path is the absolute path of the watched document.
func (w *Watcher) Path() string { return w.path }

// Run watches until ctx is cancelled (returning nil) or a pass fails
// (returning its error).
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watcher: watch %s: %w", dir, err)
	}
	w.log.Info().Dur("debounce", w.debounce).Msg("Watching package document")

	if w.RunOnStart {
		if err := w.runPass(ctx); err != nil {
			return err
		}
	}

	// idle until the first relevant event
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug().Str("op", event.Op.String()).Msg("Document changed")
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("File watch error")

		case <-timer.C:
			if err := w.runPass(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) runPass(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	start := time.Now()
	w.log.Info().Msg("Applying package document")
	if err := w.pass(ctx); err != nil {
		w.log.Error().Err(err).Msg("Reconciliation pass failed, stopping watcher")
		return err
	}
	w.log.Info().Dur("duration", time.Since(start)).Msg("Pass complete")
	return nil
}
