package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format int

const (
	// FormatConsole writes human readable lines.
	FormatConsole Format = iota
	// FormatJSON writes one JSON object per event.
	FormatJSON
)

// ParseFormat accepts "console" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "console", "":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatConsole, fmt.Errorf("unknown log format %q", s)
}

type Options struct {
	// Verbose enables debug events
	Verbose bool

	Format Format

	// Writer defaults to stderr
	Writer io.Writer
}

// New builds a timestamped zerolog logger at info level, or debug level when verbose.
func New(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
