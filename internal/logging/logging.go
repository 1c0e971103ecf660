// Package logging is the structured event sink the core accepts instead
// of depending on a concrete logger: a Sink with Warn/Error/Info/Debug,
// each taking a message and a bag of structured fields, backed by logrus
// the same way cmd/rpm-tool's predecessor wired it at the CLI boundary.
package logging

import (
	"log/syslog"
	"os"

	"github.com/sirupsen/logrus"
)

// Sink is the structured logging boundary the reconciler and its workers
// log through. Fields carry context like {"file": path} without the core
// depending on any particular logging library.
type Sink interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// logrusSink adapts *logrus.Logger to Sink.
type logrusSink struct {
	l *logrus.Logger
}

// New builds a logrus-backed Sink. target selects the output: "stdout"
// writes structured text to stdout; "syslog" writes to the local syslog
// daemon. The RUST_LOG environment variable, when set, both forces stdout
// output (overriding target) and selects the level by name, matching
// original_source's env override.
func New(target string, level string) Sink {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if rl := os.Getenv("RUST_LOG"); rl != "" {
		target = "stdout"
		level = rl
	}

	switch target {
	case "syslog":
		w, err := syslog.New(syslog.LOG_INFO, "rpm-tool")
		if err != nil {
			l.SetOutput(os.Stdout)
			l.Warnf("logging: syslog unavailable, falling back to stdout: %v", err)
		} else {
			l.SetOutput(w)
		}
	default:
		l.SetOutput(os.Stdout)
	}

	l.SetLevel(parseLevel(level))
	return &logrusSink{l: l}
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func (s *logrusSink) Debug(msg string, fields map[string]any) { s.entry(fields).Debug(msg) }
func (s *logrusSink) Info(msg string, fields map[string]any)  { s.entry(fields).Info(msg) }
func (s *logrusSink) Warn(msg string, fields map[string]any)  { s.entry(fields).Warn(msg) }
func (s *logrusSink) Error(msg string, fields map[string]any) { s.entry(fields).Error(msg) }

func (s *logrusSink) entry(fields map[string]any) *logrus.Entry {
	if len(fields) == 0 {
		return logrus.NewEntry(s.l)
	}
	return s.l.WithFields(logrus.Fields(fields))
}

// Discard is a Sink that drops everything, used by tests and by callers
// that have not wired a real sink yet.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Debug(string, map[string]any) {}
func (discardSink) Info(string, map[string]any)  {}
func (discardSink) Warn(string, map[string]any)  {}
func (discardSink) Error(string, map[string]any) {}
