// Package log provides structured logging for halmint.
//
// Console output always goes to stderr; stdout is reserved for command
// results so they stay machine readable.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Mint     zerolog.Logger
	Prepare  zerolog.Logger
	Registry zerolog.Logger
	Params   zerolog.Logger
	Orders   zerolog.Logger
	Storage  zerolog.Logger
)

// Options configures Init.
type Options struct {
	Level string
	// JSON replaces the colored console writer with JSON lines.
	JSON bool
	// File additionally receives every event as JSON when set.
	File string
}

func init() {
	Logger = newLogger(consoleWriter(os.Stderr), zerolog.InfoLevel)
	initComponentLoggers()
}

// Init replaces the global and component loggers.
func Init(opts Options) error {
	var w io.Writer = consoleWriter(os.Stderr)
	if opts.JSON {
		w = os.Stderr
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		w = zerolog.MultiLevelWriter(w, f)
	}
	Logger = newLogger(w, parseLevel(opts.Level))
	initComponentLoggers()
	return nil
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

func newLogger(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// parseLevel accepts zerolog level names plus "off"; anything unknown is info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "off" {
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func initComponentLoggers() {
	Mint = component("mint")
	Prepare = component("prepare")
	Registry = component("registry")
	Params = component("params")
	Orders = component("orders")
	Storage = component("storage")
}

func component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Debug logs a debug message.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info logs an info message.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn logs a warning message.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Benchmark returns a func that logs the time elapsed since the call at
// debug level.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
