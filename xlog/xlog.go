// Package xlog is a structured logger shaped after go-ethereum's own log
// package: a process-wide Root logger, contextual child loggers minted
// with New(ctx ...any), and leveled Trace/Debug/Info/Warn/Error/Crit calls
// taking alternating key-value pairs. It is built on the standard
// library's log/slog, with terminal color detection, caller-frame capture
// on error-grade records, and rotating file output layered on top the way
// go-ethereum's handler stack does it.
package xlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level mirrors slog.Level with go-ethereum's naming.
type Level = slog.Level

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = slog.Level(12)
)

// Logger is a contextual structured logger.
type Logger struct {
	inner *slog.Logger
}

var root = &Logger{inner: slog.New(newHandler(os.Stderr, LevelInfo))}

// Root returns the process-wide root logger.
func Root() *Logger { return root }

// SetOutput replaces the root logger's destination, e.g. with a
// lumberjack.Logger for rotation on a long-running validator plugin (not
// a one-shot CLI process, which logs to stderr directly).
func SetOutput(w io.Writer, level Level) {
	root.inner = slog.New(newHandler(w, level))
}

// NewRotatingFile returns an io.Writer that rotates the plugin's log file,
// sized and aged the way a long-running daemon needs (as opposed to the
// operator CLI, which logs straight to stderr).
func NewRotatingFile(path string, maxSizeMB, maxBackups, maxAgeDays int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
}

func newHandler(w io.Writer, level Level) slog.Handler {
	out := w
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = colorable.NewColorable(f)
	}
	return slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
}

// New returns a child logger with ctx key-value pairs attached to every
// subsequent record, e.g. xlog.New("worker", id).
func New(ctx ...any) *Logger {
	return &Logger{inner: root.inner.With(ctx...)}
}

func (l *Logger) with(ctx []any) *slog.Logger {
	if len(ctx) == 0 {
		return l.inner
	}
	return l.inner.With(ctx...)
}

func callerFrame() string {
	call := stack.Caller(2)
	return fmt.Sprintf("%+v", call)
}

func (l *Logger) Trace(msg string, ctx ...any) { l.with(ctx).Log(context.Background(), LevelTrace, msg) }
func (l *Logger) Debug(msg string, ctx ...any) { l.with(ctx).Debug(msg) }
func (l *Logger) Info(msg string, ctx ...any)  { l.with(ctx).Info(msg) }
func (l *Logger) Warn(msg string, ctx ...any)  { l.with(ctx).Warn(msg) }

// Error logs at error level with the caller's frame attached, matching
// go-ethereum's log.Error behavior of surfacing "where" for diagnosability.
func (l *Logger) Error(msg string, ctx ...any) {
	l.with(append(ctx, "caller", callerFrame())).Error(msg)
}

// Crit logs at the highest level with the caller's frame attached. It does
// not itself terminate the process; package abort owns that decision.
func (l *Logger) Crit(msg string, ctx ...any) {
	l.with(append(ctx, "caller", callerFrame())).Log(context.Background(), LevelCrit, msg)
}
