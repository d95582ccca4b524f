package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts a LOG_LEVEL value into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger provides leveled logging throughout the pipeline.
type Logger struct {
	info   *log.Logger
	warn   *log.Logger
	err    *log.Logger
	debug  *log.Logger
	level  Level
	fields string
}

// NewLogger creates a Logger writing info/warn/debug to stdout and errors to stderr.
func NewLogger(level Level) *Logger {
	flags := 0
	return &Logger{
		info:  log.New(os.Stdout, "", flags),
		warn:  log.New(os.Stdout, "", flags),
		err:   log.New(os.Stderr, "", flags),
		debug: log.New(os.Stdout, "", flags),
		level: level,
	}
}

// NewLoggerWithWriter sends every level to w. Tests pass io.Discard.
func NewLoggerWithWriter(w io.Writer, level Level) *Logger {
	l := log.New(w, "", 0)
	return &Logger{info: l, warn: l, err: l, debug: l, level: level}
}

// WithField returns a Logger that appends key=value to every line.
func (l *Logger) WithField(key string, value any) *Logger {
	child := *l
	child.fields = fmt.Sprintf("%s %s=%v", l.fields, key, value)
	return &child
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) print(dst *log.Logger, tag, format string, args []any) {
	msg := fmt.Sprintf(format, args...)
	dst.Printf("[%s] %s %s%s\n", l.timestamp(), tag, msg, l.fields)
}

func (l *Logger) Info(format string, args ...any) {
	if l.level <= LevelInfo {
		l.print(l.info, "\033[32mINFO\033[0m ", format, args)
	}
}

func (l *Logger) Warn(format string, args ...any) {
	if l.level <= LevelWarn {
		l.print(l.warn, "\033[33mWARN\033[0m ", format, args)
	}
}

func (l *Logger) Error(format string, args ...any) {
	if l.level <= LevelError {
		l.print(l.err, "\033[31mERROR\033[0m", format, args)
	}
}

func (l *Logger) Debug(format string, args ...any) {
	if l.level <= LevelDebug {
		l.print(l.debug, "\033[36mDEBUG\033[0m", format, args)
	}
}
