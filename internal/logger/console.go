// Package logger provides the console logger used for progress output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Prefix starts every line written by the logger.
const Prefix = "[TREE-GEN]"

// Log level constants for filtering
const (
	levelDebug int = iota
	levelInfo
	levelWarn
	levelError
)

// ConsoleLogger writes prefixed progress lines to a writer. It is safe for
// concurrent use. Colour is used only when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to writer. A nil writer
// discards everything. Valid levels are debug, info, warn and error; anything
// else falls back to info.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    NormalizeLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive colour.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	// color.NoColor honours NO_COLOR and TERM=dumb.
	return isatty.IsTerminal(f.Fd()) && !color.NoColor
}

// NormalizeLevel lowercases level and maps unknown values to "info".
func NormalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "debug", "info", "warn", "error":
		return normalized
	case "warning":
		return "warn"
	default:
		return "info"
	}
}

func levelToInt(level string) int {
	switch level {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(level string) bool {
	return levelToInt(level) >= levelToInt(cl.logLevel)
}

func (cl *ConsoleLogger) write(level string, c *color.Color, marker, format string, args ...any) {
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	line := Prefix + " " + fmt.Sprintf(format, args...)
	if marker != "" {
		line = marker + " " + line
	}
	if cl.colorOutput && c != nil {
		line = c.Sprint(line)
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	fmt.Fprintln(cl.writer, line)
}

// Debugf logs detail useful when diagnosing ignore rules or paths.
func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.write("debug", color.New(color.Faint), "", format, args...)
}

// Infof logs a progress message.
func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.write("info", nil, "", format, args...)
}

// Successf logs a completed step at info level.
func (cl *ConsoleLogger) Successf(format string, args ...any) {
	cl.write("info", color.New(color.FgGreen), "✅", format, args...)
}

// Warnf logs a recoverable problem.
func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.write("warn", color.New(color.FgYellow), "", "Warning: "+format, args...)
}

// Errorf logs a failure.
func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.write("error", color.New(color.FgRed), "", format, args...)
}
