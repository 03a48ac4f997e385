// Package logging provides the print-style leveled writers used across ruco
// and a log/slog logger bound to the same error stream.
//
// Warn, Dbg and Spam are gated by a process-wide debug level. Out and Err are
// unconditional. All writers format their arguments like fmt.Println.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
)

// DefaultLevel is the debug level in effect until SetLevel is called.
const DefaultLevel = 3

var (
	level atomic.Int32

	streamsMu sync.RWMutex
	// writeMu serializes every line written through this package.
	writeMu sync.Mutex
	outW      io.Writer = os.Stdout
	errW      io.Writer = os.Stderr

	warnPrefix = color.New(color.FgYellow, color.Bold)
	dbgPrefix  = color.New(color.FgCyan)
	spamPrefix = color.New(color.FgHiBlack)
)

func init() {
	level.Store(DefaultLevel)
}

// SetLevel sets the process-wide debug level.
// Warn prints above 0, Dbg above 1, Spam above 2.
func SetLevel(n int) {
	level.Store(int32(n)) //nolint:gosec // debug levels are tiny
}

// Level returns the process-wide debug level.
func Level() int {
	return int(level.Load())
}

// SetOutput replaces the stream used by Out. A nil writer restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	streamsMu.Lock()
	defer streamsMu.Unlock()
	outW = w
}

// SetError replaces the stream used by Err, Warn, Dbg and Spam.
// A nil writer restores stderr.
func SetError(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	streamsMu.Lock()
	defer streamsMu.Unlock()
	errW = w
}

// OutWriter returns the current output stream.
func OutWriter() io.Writer {
	streamsMu.RLock()
	defer streamsMu.RUnlock()
	return outW
}

// ErrWriter returns the current error stream.
func ErrWriter() io.Writer {
	streamsMu.RLock()
	defer streamsMu.RUnlock()
	return errW
}

// Out prints args to the output stream.
func Out(args ...any) {
	writeLine(OutWriter(), args)
}

// Err prints args to the error stream.
func Err(args ...any) {
	writeLine(ErrWriter(), args)
}

// Warn prints args prefixed with WARN when the debug level is above 0.
func Warn(args ...any) {
	if Level() > 0 {
		prefixed(warnPrefix.Sprint("WARN"), args)
	}
}

// Dbg prints args prefixed with DBG when the debug level is above 1.
func Dbg(args ...any) {
	if Level() > 1 {
		prefixed(dbgPrefix.Sprint("DBG"), args)
	}
}

// Spam prints args prefixed with SPAM when the debug level is above 2.
func Spam(args ...any) {
	if Level() > 2 {
		prefixed(spamPrefix.Sprint("SPAM"), args)
	}
}

func prefixed(prefix string, args []any) {
	line := make([]any, 0, len(args)+1)
	line = append(line, prefix)
	line = append(line, args...)
	writeLine(ErrWriter(), line)
}

func writeLine(w io.Writer, args []any) {
	writeMu.Lock()
	defer writeMu.Unlock()
	fmt.Fprintln(w, args...)
}

// Locked wraps w so that its writes are serialized with every other line
// written through this package.
func Locked(w io.Writer) io.Writer {
	if lw, ok := w.(lockedWriter); ok {
		return lw
	}
	return lockedWriter{w: w}
}

type lockedWriter struct {
	w io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	writeMu.Lock()
	defer writeMu.Unlock()
	return l.w.Write(p)
}

// New creates a structured logger writing to the current error stream.
// It standardizes common keys (e.g., "error" -> "err").
func New(lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(Locked(ErrWriter()), &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SlogLevel maps the debug level onto a slog level: 0 and below only errors,
// 1 warnings, 2 info, 3 and above debug.
func SlogLevel(n int) slog.Level {
	switch {
	case n <= 0:
		return slog.LevelError
	case n == 1:
		return slog.LevelWarn
	case n == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
