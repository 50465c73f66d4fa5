// Package localcask manages the private cask repository: a git clone of
// cask definitions that are installed from local .rb files instead of the
// public Homebrew registry.
package localcask

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/runner"
)

// CasksSubdir is the directory inside the repository holding cask files.
const CasksSubdir = "casks"

var (
	// ErrSync reports a failed git clone or git pull.
	ErrSync = errors.New("cask repository sync failed")
	// ErrCaskNotFound reports a missing or unreadable cask definition.
	ErrCaskNotFound = errors.New("cask definition not found")
	// ErrNoAppName reports a cask definition without a usable app stanza.
	ErrNoAppName = errors.New("cannot determine application name from cask")
)

// Repo is a local clone of the private cask repository.
type Repo struct {
	runner     runner.Runner
	log        zerolog.Logger
	startupDir string
	url        string
	name       string
}

// NewRepo creates a Repo that clones url into startupDir. The clone
// directory is named after the last path element of url, the way git clone
// names it.
func NewRepo(r runner.Runner, log zerolog.Logger, startupDir, url string) *Repo {
	return &Repo{
		runner:     r,
		log:        log,
		startupDir: startupDir,
		url:        url,
		name:       NameFromURL(url),
	}
}

// NameFromURL returns the directory git clone would create for url.
//
//	git@github.com:someone/private_casks.git -> private_casks
//	https://example.com/casks/                -> casks
func NameFromURL(url string) string {
	base := path.Base(strings.TrimRight(url, "/"))
	if i := strings.LastIndex(base, ":"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".git")
}

// Dir is the clone directory.
func (r *Repo) Dir() string {
	return filepath.Join(r.startupDir, r.name)
}

// CasksDir is the directory holding cask definition files.
func (r *Repo) CasksDir() string {
	return filepath.Join(r.Dir(), CasksSubdir)
}

// Sync clones the repository if it is missing and pulls it otherwise.
func (r *Repo) Sync() error {
	_, err := os.Stat(r.Dir())
	switch {
	case os.IsNotExist(err):
		return r.clone()
	case err != nil:
		return fmt.Errorf("%w: %v", ErrSync, err)
	default:
		return r.pull()
	}
}

func (r *Repo) clone() error {
	if err := os.MkdirAll(r.startupDir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrSync, r.startupDir, err)
	}

	r.log.Info().Str("url", r.url).Str("dir", r.startupDir).Msg("Cloning cask definitions repository")
	res := r.runner.Run([]string{"git", "clone", r.url}, r.startupDir)
	if !res.Success {
		r.logFailure("Error cloning cask definitions repository", res)
		return fmt.Errorf("%w: git clone %s: status %d", ErrSync, r.url, res.StatusCode)
	}
	return nil
}

func (r *Repo) pull() error {
	r.log.Debug().Str("dir", r.Dir()).Msg("Updating cask definitions repository")
	res := r.runner.Run([]string{"git", "pull"}, r.Dir())
	if !res.Success {
		r.logFailure("Error updating cask definitions repository", res)
		return fmt.Errorf("%w: git pull in %s: status %d", ErrSync, r.Dir(), res.StatusCode)
	}
	return nil
}

func (r *Repo) logFailure(msg string, res runner.Result) {
	r.log.Error().
		Int("status", res.StatusCode).
		Str("stdout", res.Stdout).
		Str("stderr", res.Stderr).
		Msg(msg)
}
