// Package gdrelog is a small leveled logger used across the gdre toolkit.
//
// Its shape mirrors the teacher's own helper package: a minimal Logger
// interface, a Helper that adds printf-style convenience methods, and a
// Filter that gates records by level. Components log demotions and
// anomalies through a *Helper; hard failures are still returned as errors.
package gdrelog

import (
	"fmt"
	"os"
	"time"
)

// Level is a logging severity.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal sink every component logs through.
type Logger interface {
	Log(level Level, msg string) error
}

// stdLogger writes timestamped, leveled lines to an io.Writer.
type stdLogger struct {
	out *os.File
}

// NewStdLogger returns a Logger that writes to f.
func NewStdLogger(f *os.File) Logger {
	return &stdLogger{out: f}
}

func (l *stdLogger) Log(level Level, msg string) error {
	_, err := fmt.Fprintf(l.out, "%s %-5s %s\n",
		time.Now().Format(time.RFC3339), level, msg)
	return err
}

// filter wraps a Logger and drops records below a minimum level.
type filter struct {
	next Logger
	min  Level
}

// NewFilter returns a Logger that only forwards records at or above min.
func NewFilter(next Logger, min Level) Logger {
	return &filter{next: next, min: min}
}

func (f *filter) Log(level Level, msg string) error {
	if level < f.min {
		return nil
	}
	return f.next.Log(level, msg)
}

// Helper adds printf-style convenience methods on top of a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, format string, args ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	_ = h.logger.Log(level, msg)
}

func (h *Helper) Debugf(format string, args ...interface{}) { h.log(LevelDebug, format, args...) }
func (h *Helper) Infof(format string, args ...interface{})  { h.log(LevelInfo, format, args...) }
func (h *Helper) Warnf(format string, args ...interface{})  { h.log(LevelWarn, format, args...) }
func (h *Helper) Errorf(format string, args ...interface{}) { h.log(LevelError, format, args...) }

// Nop returns a Helper that discards everything, safe for use as a default
// when a caller passes a nil Logger.
func Nop() *Helper {
	return &Helper{logger: nil}
}
