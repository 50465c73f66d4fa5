package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/macinstall/internal/engine"
	"github.com/blackwell-systems/macinstall/internal/installer"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// RunProgress follows an engine run. It implements engine.Observer and
// counts outcomes for the closing summary.
//
// On a terminal it redraws one line per package:
//
//	[=========>          ]  3/7 wget
//
// Elsewhere it prints one line per package that changed or failed.
type RunProgress struct {
	total  int
	done   int
	width  int
	counts map[string]int
	dryRun bool
	mu     sync.Mutex
	writer io.Writer
}

// NewRunProgress creates a progress display for total packages.
func NewRunProgress(total int, dryRun bool) *RunProgress {
	return &RunProgress{
		total:  total,
		width:  20,
		counts: make(map[string]int),
		dryRun: dryRun,
		writer: os.Stdout,
	}
}

// SetWriter sets the output writer (useful for testing).
func (p *RunProgress) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Observe records one package report and redraws.
func (p *RunProgress) Observe(r engine.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if p.done > p.total {
		p.total = p.done
	}
	p.counts[r.Outcome.String()]++

	if writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "\r\033[K%s %*d/%d %s", p.bar(), width(p.total), p.done, p.total, r.Record.Label())
		return
	}

	switch r.Outcome {
	case installer.Changed:
		verb := string(r.Action)
		if p.dryRun {
			verb = "would " + verb
		}
		fmt.Fprintf(p.writer, "%s %s\n", verb, r.Record.Label())
	case installer.Failed:
		fmt.Fprintf(p.writer, "failed %s %s\n", r.Action, r.Record.Label())
	}
}

// Counts returns the outcome counts so far.
func (p *RunProgress) Counts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}
	return out
}

// Finish ends the progress line and prints the summary.
func (p *RunProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writerIsTTY(p.writer) {
		fmt.Fprint(p.writer, "\r\033[K")
	}
	fmt.Fprint(p.writer, RenderSummary(p.counts, p.dryRun))
}

// bar draws the bar (must be called with lock held).
func (p *RunProgress) bar() string {
	filled := 0
	if p.total > 0 {
		filled = (p.done * p.width) / p.total
	}

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteString("=")
		case i == filled-1:
			bar.WriteString(">")
		default:
			bar.WriteString(" ")
		}
	}
	bar.WriteString("]")
	return bar.String()
}

func width(n int) int {
	return len(fmt.Sprint(n))
}

// Spinner displays an animated spinner with a message while a blocking
// query runs.
// Example: |  Checking packages...
type Spinner struct {
	message string
	running bool
	chars   []string
	mu      sync.Mutex
	writer  io.Writer
	ticker  *time.Ticker
	done    chan struct{}
}

// NewSpinner creates a new spinner with a message.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		chars:   []string{"|", "/", "-", "\\"},
		writer:  os.Stderr,
		done:    make(chan struct{}),
	}
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the spinner animation.
// On a non-TTY writer nothing is drawn so that piped output stays clean.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	if !writerIsTTY(s.writer) {
		return
	}

	s.ticker = time.NewTicker(100 * time.Millisecond)
	go func() {
		idx := 0
		for {
			select {
			case <-s.ticker.C:
				s.mu.Lock()
				if !s.running {
					s.mu.Unlock()
					return
				}
				fmt.Fprintf(s.writer, "\r%s  %s", s.chars[idx], s.message)
				idx = (idx + 1) % len(s.chars)
				s.mu.Unlock()

			case <-s.done:
				return
			}
		}
	}()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)

	if writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	}
}
