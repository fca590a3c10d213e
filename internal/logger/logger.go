// Package logger provides a leveled, tagged logger on top of the standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level selects which messages are written.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// ParseLevel maps a level name (none, error, warn, info, debug) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "none", "off":
		return LevelNone, nil
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes leveled messages, optionally prefixed with a component tag.
type Logger struct {
	logger *log.Logger
	level  Level
	tag    string
}

// New wraps l. Messages above level are discarded.
func New(l *log.Logger, level Level) *Logger {
	return &Logger{logger: l, level: level}
}

// NewStd returns a logger writing to stdout. Under systemd (INVOCATION_ID set)
// lines carry no timestamp because the journal adds its own.
func NewStd(level Level) *Logger {
	flags := log.LstdFlags | log.Lmicroseconds | log.Lmsgprefix
	if os.Getenv("INVOCATION_ID") != "" {
		flags = 0
	}
	return New(log.New(os.Stdout, "", flags), level)
}

// Discard returns a logger that writes nothing. Useful in tests.
func Discard() *Logger {
	return New(log.New(io.Discard, "", 0), LevelNone)
}

// WithTag returns a logger sharing the same output and level with a "[tag]" prefix.
func (l *Logger) WithTag(tag string) *Logger {
	return &Logger{logger: l.logger, level: l.level, tag: tag}
}

// Level returns the configured level.
func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) format(level, format string) string {
	if l.tag != "" {
		if level != "" {
			return "[" + l.tag + "] " + level + " " + format
		}
		return "[" + l.tag + "] " + format
	}
	if level != "" {
		return level + " " + format
	}
	return format
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.level >= LevelDebug {
		l.logger.Printf(l.format("DEBUG:", format), v...)
	}
}

func (l *Logger) Infof(format string, v ...interface{}) {
	if l.level >= LevelInfo {
		l.logger.Printf(l.format("", format), v...)
	}
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.level >= LevelWarn {
		l.logger.Printf(l.format("WARN:", format), v...)
	}
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	if l.level >= LevelError {
		l.logger.Printf(l.format("ERROR:", format), v...)
	}
}

// Fatalf logs regardless of level and exits.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(l.format("FATAL:", format), v...)
}
