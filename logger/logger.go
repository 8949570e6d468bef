// Package logger configures zerolog for the billing service. JSON output
// for machines, console output for humans, one global logger shared by
// the HTTP layer and the domain managers.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options holds logging configuration.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or a file path
}

// DefaultOptions returns console logging at info level.
func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
}

// Setup initializes the global logger and returns it.
func Setup(opts Options) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return zerolog.Logger{}, err
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer
	switch opts.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return zerolog.Logger{}, err
		}
		output = file
	}

	if strings.ToLower(opts.Format) != "json" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger, nil
}

// WithComponent returns a logger tagged with a component field.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
