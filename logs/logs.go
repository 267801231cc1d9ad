// Package logs implements a leveled, subsystem-tagged logging backend used
// throughout the core. It mirrors the shape of btcsuite's btclog: a
// Backend writes formatted records to one or more io.Writers, and each
// Logger obtained from it carries its own independently adjustable Level.
package logs

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the granularity of a log record.
type Level uint32

// Supported logging levels, ordered from most to least verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelStrings = map[Level]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

// String returns the shorthand three-letter identifier for l.
func (l Level) String() string {
	if s, ok := levelStrings[l]; ok {
		return s
	}
	return "UNK"
}

// LevelFromString parses the lowercase long-form name of a level ("trace"
// through "off"); shorthand names are not recognized.
func LevelFromString(s string) (l Level, ok bool) {
	switch s {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "critical":
		return LevelCritical, true
	case "off":
		return LevelOff, true
	}
	return LevelInfo, false
}

// Logger writes leveled, subsystem-tagged records to a Backend.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	Level() Level
	SetLevel(level Level)
}

// BackendWriter is an io.Writer that only accepts records at or above a
// minimum level (or, for error-only writers, exactly the error/critical
// band), allowing one Backend to fan a record out to several destinations.
type BackendWriter struct {
	w        io.Writer
	minLevel Level
	errOnly  bool
}

// NewAllLevelsBackendWriter returns a BackendWriter that accepts every
// level.
func NewAllLevelsBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelTrace}
}

// NewErrorBackendWriter returns a BackendWriter that only accepts Error and
// Critical records.
func NewErrorBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelError, errOnly: true}
}

func (bw *BackendWriter) accepts(level Level) bool {
	return level >= bw.minLevel
}

// Backend is the shared sink every subsystem Logger writes through.
type Backend struct {
	mu      sync.Mutex
	writers []*BackendWriter
}

// NewBackend creates a Backend fanning records out to writers.
func NewBackend(writers []*BackendWriter) *Backend {
	return &Backend{writers: writers}
}

func (b *Backend) print(tag string, level Level, format string, args ...interface{}) {
	line := fmt.Sprintf("%s [%s] %s: %s\n",
		time.Now().UTC().Format("2006-01-02 15:04:05.000"), level, tag,
		fmt.Sprintf(format, args...))

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.writers {
		if w.accepts(level) {
			_, _ = io.WriteString(w.w, line)
		}
	}
}

// Logger returns a new subsystem Logger, tagged with tag, writing through b.
// It defaults to LevelInfo.
func (b *Backend) Logger(tag string) Logger {
	return &subsystemLogger{backend: b, tag: tag, level: uint32(LevelInfo)}
}

type subsystemLogger struct {
	backend *Backend
	tag     string
	level   uint32
}

func (l *subsystemLogger) Level() Level         { return Level(atomic.LoadUint32(&l.level)) }
func (l *subsystemLogger) SetLevel(level Level) { atomic.StoreUint32(&l.level, uint32(level)) }

func (l *subsystemLogger) write(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.backend.print(l.tag, level, format, args...)
}

func (l *subsystemLogger) Tracef(format string, args ...interface{})    { l.write(LevelTrace, format, args...) }
func (l *subsystemLogger) Debugf(format string, args ...interface{})    { l.write(LevelDebug, format, args...) }
func (l *subsystemLogger) Infof(format string, args ...interface{})     { l.write(LevelInfo, format, args...) }
func (l *subsystemLogger) Warnf(format string, args ...interface{})     { l.write(LevelWarn, format, args...) }
func (l *subsystemLogger) Errorf(format string, args ...interface{})    { l.write(LevelError, format, args...) }
func (l *subsystemLogger) Criticalf(format string, args ...interface{}) { l.write(LevelCritical, format, args...) }
