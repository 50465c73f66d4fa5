package brew

import "github.com/blackwell-systems/macinstall/internal/runner"

// Kind selects between formula and cask subcommands.
type Kind int

const (
	Formula Kind = iota
	Cask
)

func (k Kind) String() string {
	if k == Cask {
		return "cask"
	}
	return "formula"
}

// Client issues Homebrew commands through a runner.Runner.
type Client struct {
	runner runner.Runner
}

// NewClient creates a Client.
func NewClient(r runner.Runner) *Client {
	return &Client{runner: r}
}

// args builds "brew [cask] <verb> <rest...>".
func args(kind Kind, verb string, rest ...string) []string {
	argv := []string{"brew"}
	if kind == Cask {
		argv = append(argv, "cask")
	}
	argv = append(argv, verb)
	return append(argv, rest...)
}

// List runs brew list (or brew cask list).
func (c *Client) List(kind Kind) runner.Result {
	return c.runner.Run(args(kind, "list"), "")
}

// Install runs brew install <name> (or brew cask install <name>).
func (c *Client) Install(kind Kind, name string) runner.Result {
	return c.runner.Run(args(kind, "install", name), "")
}

// Uninstall runs brew uninstall <name> (or brew cask uninstall <name>).
func (c *Client) Uninstall(kind Kind, name string) runner.Result {
	return c.runner.Run(args(kind, "uninstall", name), "")
}

// InstallCaskFile installs a cask from a definition file in dir. The file is
// referenced relative to dir, so the command runs with dir as its working
// directory. reinstall selects brew cask reinstall.
func (c *Client) InstallCaskFile(file, dir string, reinstall bool) runner.Result {
	verb := "install"
	if reinstall {
		verb = "reinstall"
	}
	return c.runner.Run(args(Cask, verb, file), dir)
}

// IsInstalled runs the list command for kind and reports whether name is
// one of its lines. A failed list command reports false.
func (c *Client) IsInstalled(kind Kind, name string) bool {
	res := c.List(kind)
	if !res.Success {
		return false
	}
	return Listed(res.Stdout, name)
}

// Listed reports whether name appears as an exact line of list output.
func Listed(output, name string) bool {
	for _, line := range runner.Lines(output) {
		if line == name {
			return true
		}
	}
	return false
}
