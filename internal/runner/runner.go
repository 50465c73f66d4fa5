// Package runner executes external package-manager commands.
//
// Commands are always given as an argument vector and are never passed
// through a shell. Execution is synchronous: Run blocks until the command
// exits and returns everything it printed.
package runner

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/macinstall/internal/logging"
)

// StatusNotStarted is the status code reported when the command could not be
// started at all (binary missing, bad working directory).
const StatusNotStarted = -1

// Result is the captured outcome of a single command.
type Result struct {
	Stdout     string
	Stderr     string
	Success    bool
	StatusCode int
}

// Runner runs a command and reports its result. dir may be empty, in which
// case the command inherits the current working directory.
type Runner interface {
	Run(argv []string, dir string) Result
}

// Exec is the production Runner backed by os/exec.
type Exec struct {
	log zerolog.Logger
}

// NewExec creates an Exec runner that logs every command at debug level.
func NewExec(log zerolog.Logger) *Exec {
	return &Exec{log: log}
}

// Run executes argv and captures stdout and stderr separately.
func (e *Exec) Run(argv []string, dir string) Result {
	if len(argv) == 0 {
		return Result{Stderr: "empty command", StatusCode: StatusNotStarted}
	}

	logging.LogCommand(e.log, argv, dir)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		res.Success = true
		res.StatusCode = 0
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.StatusCode = exitErr.ExitCode()
	} else {
		res.StatusCode = StatusNotStarted
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
	}

	e.log.Debug().
		Str("command", strings.Join(argv, " ")).
		Int("status", res.StatusCode).
		Msg("Command failed")

	return res
}

// Lines splits command output into trimmed, non-empty lines.
func Lines(output string) []string {
	raw := strings.Split(output, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
