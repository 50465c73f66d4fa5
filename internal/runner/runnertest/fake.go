// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"strings"
	"sync"

	"github.com/blackwell-systems/macinstall/internal/runner"
)

// Call records a single invocation of the fake.
type Call struct {
	Argv []string
	Dir  string
}

// String returns the argument vector joined by spaces.
func (c Call) String() string {
	return strings.Join(c.Argv, " ")
}

// Fake is a runner.Runner whose responses are scripted per command line.
//
// Responses registered for the same command are consumed in order; the last
// one is repeated once the queue is down to a single entry. Commands with no
// scripted response succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]runner.Result
	hooks     map[string]func()
	calls     []Call
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{
		responses: make(map[string][]runner.Result),
		hooks:     make(map[string]func()),
	}
}

// On queues a response for the command line cmd ("brew list").
func (f *Fake) On(cmd string, res runner.Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmd] = append(f.responses[cmd], res)
	return f
}

// OK queues a successful response with the given stdout.
func (f *Fake) OK(cmd, stdout string) *Fake {
	return f.On(cmd, runner.Result{Stdout: stdout, Success: true})
}

// Fail queues a failed response with the given status and stderr.
func (f *Fake) Fail(cmd string, status int, stderr string) *Fake {
	return f.On(cmd, runner.Result{Stderr: stderr, StatusCode: status})
}

// Do registers a side effect executed every time cmd runs, before its
// response is returned. Tests use it to create or delete files the way the
// real command would.
func (f *Fake) Do(cmd string, fn func()) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[cmd] = fn
	return f
}

// Run implements runner.Runner.
func (f *Fake) Run(argv []string, dir string) runner.Result {
	key := strings.Join(argv, " ")

	f.mu.Lock()
	f.calls = append(f.calls, Call{Argv: append([]string(nil), argv...), Dir: dir})
	hook := f.hooks[key]
	var res runner.Result
	queue := f.responses[key]
	switch {
	case len(queue) == 0:
		res = runner.Result{Success: true}
	case len(queue) == 1:
		res = queue[0]
	default:
		res = queue[0]
		f.responses[key] = queue[1:]
	}
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return res
}

// Calls returns every recorded invocation in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Commands returns every recorded invocation as a joined command line.
func (f *Fake) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many times cmd was run.
func (f *Fake) Count(cmd string) int {
	n := 0
	for _, c := range f.Commands() {
		if c == cmd {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps scripted responses.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
