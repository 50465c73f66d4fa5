// Package logging configures the zerolog logger shared by every component:
// a console writer on stderr plus an optional rotating log file.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Options describe where log lines go.
type Options struct {
	// Verbosity 0 logs info and above, 1 adds debug, 2 and more add trace.
	Verbosity int
	// Quiet limits the console and file to warnings and errors.
	Quiet bool
	// File is the log file. Empty disables file logging.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console defaults to os.Stderr.
	Console io.Writer
	// NoColor disables ANSI colors on the console.
	NoColor bool
}

// Level maps verbosity flags to a zerolog level.
func Level(verbosity int, quiet bool) zerolog.Level {
	if quiet {
		return zerolog.WarnLevel
	}
	switch verbosity {
	case 0:
		return zerolog.InfoLevel
	case 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup builds the logger, installs it as the global zerolog logger and
// returns it with a closer for the log file.
func Setup(opts Options) (zerolog.Logger, io.Closer) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lj.Logger{
			Filename:   opts.File,
			MaxSize:    valOr(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(opts.MaxAgeDays, DefaultMaxAgeDays),
		}
		writers = append(writers, file)
		closer = file
	}

	level := Level(opts.Verbosity, opts.Quiet)
	logger := zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Add caller information for trace level
	if opts.Verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}

	log.Logger = logger
	logger.Debug().
		Int("verbosity", opts.Verbosity).
		Str("logFile", opts.File).
		Msg("Logger initialized")

	return logger, closer
}

// GetLogger returns a contextualized logger with the given component name.
func GetLogger(parent zerolog.Logger, name string) zerolog.Logger {
	return parent.With().Str("component", name).Logger()
}

// LogCommand logs a command execution with its arguments.
func LogCommand(logger zerolog.Logger, argv []string, dir string) {
	if len(argv) == 0 {
		return
	}
	logger.Debug().
		Str("command", argv[0]).
		Strs("args", argv[1:]).
		Str("dir", dir).
		Msg("Executing command")
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
