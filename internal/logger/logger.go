// Package logger provides levelled logging for the ragguard CLI.
// Debug output is enabled with the --verbose flag; everything else is
// filtered by the configured level. Output goes to stderr so that answers
// and reports on stdout stay machine readable.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	level   = log.InfoLevel
	format  = FormatAuto
	output  io.Writer = os.Stderr
	base    = build()
)

// build assembles the phuslu logger from the current settings.
// Callers must hold mu.
func build() *log.Logger {
	lvl := level
	if verbose {
		lvl = log.DebugLevel
	}

	var w log.Writer
	if useConsole() {
		w = &log.ConsoleWriter{Writer: output, ColorOutput: isTerminal(output)}
	} else {
		w = &log.IOWriter{Writer: output}
	}

	return &log.Logger{
		Level:      lvl,
		TimeFormat: "15:04:05",
		Writer:     w,
	}
}

func useConsole() bool {
	switch format {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	default:
		return isTerminal(output)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// SetLevel sets the minimum level from its name (debug, info, warn, error).
// Unknown names fall back to info.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	level = parseLevel(name)
	base = build()
}

func parseLevel(name string) log.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// SetFormat selects console, json or auto output.
func SetFormat(f string) error {
	switch f {
	case FormatAuto, FormatConsole, FormatJSON:
	case "":
		f = FormatAuto
	default:
		return fmt.Errorf("unknown log format %q", f)
	}
	mu.Lock()
	defer mu.Unlock()
	format = f
	base = build()
	return nil
}

// Debug logs a message when verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Debug().Msgf(format, args...)
}

// Section logs a section header when verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	base.Debug().Msgf("=== %s ===", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Info().Msgf(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Warn().Msgf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Error().Msgf(format, args...)
}
