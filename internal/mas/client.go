// Package mas wraps the Mac App Store command line (mas).
package mas

import (
	"strings"

	"github.com/blackwell-systems/macinstall/internal/runner"
)

// Client issues mas commands through a runner.Runner.
type Client struct {
	runner runner.Runner
}

// NewClient creates a Client.
func NewClient(r runner.Runner) *Client {
	return &Client{runner: r}
}

// List runs mas list.
func (c *Client) List() runner.Result {
	return c.runner.Run([]string{"mas", "list"}, "")
}

// Install runs mas install <id>.
func (c *Client) Install(id string) runner.Result {
	return c.runner.Run([]string{"mas", "install", id}, "")
}

// IsInstalled reports whether id is listed by mas list. A failed list
// command reports false.
func (c *Client) IsInstalled(id string) bool {
	res := c.List()
	if !res.Success {
		return false
	}
	for _, listed := range IDs(res.Stdout) {
		if listed == id {
			return true
		}
	}
	return false
}

// IDs extracts the store id from each line of mas list output. The id is
// the first whitespace-delimited token:
//
//	692867256  Simplenote      (2.3)
//	497799835  Xcode           (15.0)
func IDs(output string) []string {
	var ids []string
	for _, line := range runner.Lines(output) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		ids = append(ids, fields[0])
	}
	return ids
}
