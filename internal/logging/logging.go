// Package logging fans leveled log lines out to one or more sinks. The
// comparison worker only ever talks to a Logger; front ends decide where the
// lines end up by choosing sinks.
package logging

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/morikuni/aec"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return ""
}

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

type Sink interface {
	Emit(Entry)
}

type SinkFunc func(Entry)

func (f SinkFunc) Emit(e Entry) { f(e) }

type Logger struct {
	mu      sync.Mutex
	sinks   []Sink
	verbose bool
	now     func() time.Time
}

func New(verbose bool, sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, verbose: verbose, now: time.Now}
}

// Discard returns a logger with no sinks.
func Discard() *Logger {
	return New(false)
}

// With returns a logger writing to the receiver's sinks plus extra.
func (l *Logger) With(extra ...Sink) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	sinks := make([]Sink, 0, len(l.sinks)+len(extra))
	sinks = append(sinks, l.sinks...)
	sinks = append(sinks, extra...)
	return &Logger{sinks: sinks, verbose: l.verbose, now: l.now}
}

func (l *Logger) Verbose() bool {
	return l.verbose
}

func (l *Logger) emit(level Level, format string, args ...interface{}) {
	if level == LevelDebug && !l.verbose {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := Entry{Time: l.now(), Level: level, Message: fmt.Sprintf(format, args...)}
	for _, s := range l.sinks {
		s.Emit(e)
	}
}

func (l *Logger) Log(format string, args ...interface{}) {
	l.emit(LevelInfo, format, args...)
}

// Debug lines are dropped unless the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LevelDebug, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.emit(LevelWarning, format, args...)
}

func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	l.emit(LevelError, "%s", err.Error())
}

// ConsoleSink writes entries through a standard library logger, coloring the
// level tag when color is set.
type ConsoleSink struct {
	out   *log.Logger
	color bool
}

func NewConsoleSink(w io.Writer, color bool) *ConsoleSink {
	return &ConsoleSink{out: log.New(w, "", 0), color: color}
}

func (c *ConsoleSink) Emit(e Entry) {
	tag := "[" + e.Level.String() + "]"
	if c.color {
		tag = levelColor(e.Level).Apply(tag)
	}
	c.out.Printf("%s %s %s", e.Time.Format("2006-01-02 15:04:05"), tag, e.Message)
}

func levelColor(l Level) aec.ANSI {
	switch l {
	case LevelDebug:
		return aec.CyanF
	case LevelWarning:
		return aec.YellowF
	case LevelError:
		return aec.RedF
	}
	return aec.BlueF
}

// Recorder keeps every entry in memory, in emission order.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Emit(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the messages of entries at or above min.
func (r *Recorder) Messages(min Level) []string {
	entries := r.Entries()
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Level >= min {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}
