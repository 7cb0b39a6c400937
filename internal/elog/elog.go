// Package elog is the supervisor's structured logger: a single shared
// *logrus.Logger, a sink chosen once at start-up (the kernel log device
// or stderr, never both), and a best-effort persistent breadcrumb for
// anything serious enough that it might not survive a reboot otherwise.
//
// Grounded on original_source/src/elog.c and elog.h for the behavior
// (one sink decided once, a pmsg breadcrumb for severe entries) and on
// the logrus usage in the example pack for the Go idiom — a typed
// logger built from hooks rather than a hand-rolled vsnprintf buffer.
package elog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Severity mirrors the five levels the original program actually
// emits at (elog.c supports the full RFC5424 set; this port only ever
// logs Debug through Critical).
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
	Critical
)

func (s Severity) logrusLevel() logrus.Level {
	switch s {
	case Debug:
		return logrus.DebugLevel
	case Info:
		return logrus.InfoLevel
	case Warning:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	case Critical:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger wraps a *logrus.Logger with the run-id field and the pmsg
// breadcrumb hook already attached.
type Logger struct {
	base  *logrus.Logger
	runID string
}

// Option configures New.
type Option func(*options)

type options struct {
	kmsgPath string
	pmsgPath string
	verbose  Severity
}

// WithVerbosity sets the minimum severity actually emitted, matching
// HEART_VERBOSE's three bands: 0 emergencies-only (mapped here to
// Critical), 1 errors-and-above, >=2 debug-and-above.
func WithVerbosity(v int) Option {
	return func(o *options) {
		switch {
		case v >= 2:
			o.verbose = Debug
		case v == 1:
			o.verbose = Error
		default:
			o.verbose = Critical
		}
	}
}

func withPaths(kmsg, pmsg string) Option {
	return func(o *options) {
		o.kmsgPath = kmsg
		o.pmsgPath = pmsg
	}
}

// New opens the kernel log device, falling back to stderr if that
// fails, attaches a pmsg breadcrumb hook, and returns a Logger carrying
// a freshly minted run id.
func New(opts ...Option) *Logger {
	o := options{kmsgPath: "/dev/kmsg", pmsgPath: "/dev/pmsg0", verbose: Info}
	for _, opt := range opts {
		opt(&o)
	}

	base := logrus.New()
	base.SetLevel(o.verbose.logrusLevel())

	sink, usingStderr := openSink(o.kmsgPath)
	base.SetOutput(sink)

	if usingStderr {
		colorize := term.IsTerminal(int(os.Stderr.Fd()))
		base.SetFormatter(&textFormatter{colorize: colorize})
	} else {
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	base.AddHook(newPmsgHook(o.pmsgPath))

	return &Logger{base: base, runID: uuid.NewString()}
}

func openSink(kmsgPath string) (io.Writer, bool) {
	f, err := os.OpenFile(kmsgPath, os.O_WRONLY, 0)
	if err != nil {
		return os.Stderr, true
	}
	return f, false
}

func (l *Logger) entry() *logrus.Entry {
	return l.base.WithField("run_id", l.runID)
}

func (l *Logger) Debugf(format string, args ...any)   { l.entry().Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)    { l.entry().Infof(format, args...) }
func (l *Logger) Warningf(format string, args ...any) { l.entry().Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any)   { l.entry().Errorf(format, args...) }

// Criticalf logs at FatalLevel without terminating the process —
// logrus.Entry.Logf, unlike Fatalf, never calls os.Exit. Termination is
// the supervisor loop's own decision, not the logger's.
func (l *Logger) Criticalf(format string, args ...any) {
	l.entry().Logf(logrus.FatalLevel, format, args...)
}

// RunID is the per-process correlation id threaded through every log
// line, so entries can be correlated across a watchdog-induced reboot.
func (l *Logger) RunID() string { return l.runID }

// textFormatter is a minimal logrus formatter producing plain
// "[timestamp] SEVERITY run_id=<id> message" lines, with optional color
// for an interactive stderr fallback.
type textFormatter struct {
	colorize bool
}

func (f *textFormatter) Format(e *logrus.Entry) ([]byte, error) {
	line := fmt.Sprintf("[%s] %s run_id=%s %s\n",
		e.Time.Format(time.RFC3339), levelTag(e.Level), e.Data["run_id"], e.Message)
	if !f.colorize {
		return []byte(line), nil
	}
	switch e.Level {
	case logrus.ErrorLevel, logrus.FatalLevel:
		return []byte(color.RedString(line)), nil
	case logrus.WarnLevel:
		return []byte(color.YellowString(line)), nil
	default:
		return []byte(line), nil
	}
}

func levelTag(l logrus.Level) string {
	switch l {
	case logrus.DebugLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARNING"
	case logrus.ErrorLevel:
		return "ERROR"
	case logrus.FatalLevel:
		return "CRITICAL"
	default:
		return "INFO"
	}
}
