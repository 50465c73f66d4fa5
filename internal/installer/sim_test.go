package installer

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/localcask"
	"github.com/blackwell-systems/macinstall/internal/runner"
)

// sim is a stateful stand-in for brew, mas, git and sudo. It keeps the set of
// installed formulae, casks and store apps and answers list commands from
// that state, so install-then-verify flows behave like the real tools.
type sim struct {
	t        *testing.T
	formulae map[string]bool
	casks    map[string]bool
	// store id -> app bundle path; listed while the bundle exists
	storeApps map[string]string
	// storeCatalog maps a store id to the app name mas install creates
	storeCatalog map[string]string

	// localCasks maps a cask file name to the app bundle it creates
	localCasks map[string]string
	apps       string

	// repoFiles are written into casks/ when git clone runs
	repoFiles map[string]string

	failures map[string]runner.Result
	// lie makes the matching command succeed without changing state
	lie map[string]bool

	argvs [][]string
	dirs  []string
}

func newSim(t *testing.T) *sim {
	return &sim{
		t:            t,
		formulae:     make(map[string]bool),
		casks:        make(map[string]bool),
		storeApps:    make(map[string]string),
		storeCatalog: make(map[string]string),
		localCasks:   make(map[string]string),
		repoFiles:    make(map[string]string),
		failures:     make(map[string]runner.Result),
		lie:          make(map[string]bool),
	}
}

func (s *sim) fail(cmd string, status int, stderr string) {
	s.failures[cmd] = runner.Result{StatusCode: status, Stderr: stderr, Stdout: "partial output"}
}

func (s *sim) Run(argv []string, dir string) runner.Result {
	s.argvs = append(s.argvs, append([]string(nil), argv...))
	s.dirs = append(s.dirs, dir)

	key := strings.Join(argv, " ")
	if res, ok := s.failures[key]; ok {
		return res
	}
	if s.lie[key] {
		return runner.Result{Success: true}
	}

	ok := runner.Result{Success: true}
	switch {
	case key == "brew list":
		return runner.Result{Success: true, Stdout: listOf(s.formulae)}
	case key == "brew cask list":
		return runner.Result{Success: true, Stdout: listOf(s.casks)}
	case key == "mas list":
		var sb strings.Builder
		for id, app := range s.storeApps {
			if _, err := os.Stat(app); err == nil {
				sb.WriteString(id + " " + strings.TrimSuffix(filepath.Base(app), ".app") + " (1.0)\n")
			}
		}
		return runner.Result{Success: true, Stdout: sb.String()}
	case len(argv) == 3 && argv[0] == "brew" && argv[1] == "install":
		s.formulae[argv[2]] = true
	case len(argv) == 3 && argv[0] == "brew" && argv[1] == "uninstall":
		delete(s.formulae, argv[2])
	case len(argv) == 4 && argv[0] == "brew" && argv[1] == "cask" && (argv[2] == "install" || argv[2] == "reinstall"):
		if app, local := s.localCasks[argv[3]]; local {
			if err := os.MkdirAll(filepath.Join(s.apps, app), 0755); err != nil {
				s.t.Fatal(err)
			}
		} else {
			s.casks[argv[3]] = true
		}
	case len(argv) == 4 && argv[0] == "brew" && argv[1] == "cask" && argv[2] == "uninstall":
		if app, local := s.localCasks[argv[3]+".rb"]; local {
			os.RemoveAll(filepath.Join(s.apps, app))
		}
		delete(s.casks, argv[3])
	case len(argv) == 3 && argv[0] == "mas" && argv[1] == "install":
		name, known := s.storeCatalog[argv[2]]
		if !known {
			return runner.Result{StatusCode: 1, Stderr: "Error: No results found"}
		}
		app := filepath.Join(s.apps, name+".app")
		if err := os.MkdirAll(app, 0755); err != nil {
			s.t.Fatal(err)
		}
		s.storeApps[argv[2]] = app
	case len(argv) == 3 && argv[0] == "git" && argv[1] == "clone":
		casks := filepath.Join(dir, localcask.NameFromURL(argv[2]), localcask.CasksSubdir)
		if err := os.MkdirAll(casks, 0755); err != nil {
			s.t.Fatal(err)
		}
		for file, body := range s.repoFiles {
			if err := os.WriteFile(filepath.Join(casks, file), []byte(body), 0644); err != nil {
				s.t.Fatal(err)
			}
		}
	case len(argv) >= 3 && argv[0] == "sudo" && argv[1] == "rm" && argv[2] == "-rf":
		for _, p := range argv[3:] {
			os.RemoveAll(p)
		}
	}
	return ok
}

func (s *sim) commands() []string {
	out := make([]string, len(s.argvs))
	for i, argv := range s.argvs {
		out[i] = strings.Join(argv, " ")
	}
	return out
}

func (s *sim) count(cmd string) int {
	n := 0
	for _, c := range s.commands() {
		if c == cmd {
			n++
		}
	}
	return n
}

func (s *sim) reset() {
	s.argvs = nil
	s.dirs = nil
}

// mutating reports commands other than list queries and repository syncs.
func (s *sim) mutating() []string {
	var out []string
	for _, c := range s.commands() {
		switch c {
		case "brew list", "brew cask list", "mas list", "git pull":
			continue
		}
		if strings.HasPrefix(c, "git clone ") {
			continue
		}
		out = append(out, c)
	}
	return out
}

func listOf(set map[string]bool) string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, "\n") + "\n"
}

func testDeps(t *testing.T, s *sim) (Deps, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	var buf bytes.Buffer
	paths := Paths{
		StartupDir:   filepath.Join(root, ".startup"),
		RepoURL:      "git@github.com:someone/private_casks.git",
		Applications: filepath.Join(root, "Applications"),
		Receipts:     filepath.Join(root, "receipts"),
		Trash:        filepath.Join(root, ".Trash"),
	}
	for _, dir := range []string{paths.Applications, paths.Trash} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	s.apps = paths.Applications
	return Deps{Log: zerolog.New(&buf), Runner: s, Paths: paths}, &buf
}
