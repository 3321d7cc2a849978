// Package logging is a small structured logger for the orchestrator and
// server, modeled on the teacher's internal/utils.Logger: leveled output
// over the standard log package plus a Field-based structured variant.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger provides leveled, optionally structured logging.
type Logger struct {
	verbose bool
	infoLog *log.Logger
	warnLog *log.Logger
	errLog  *log.Logger
	dbgLog  *log.Logger
}

// Field is a single structured logging key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// New creates a Logger writing to stdout/stderr.
func New(verbose bool) *Logger {
	return &Logger{
		verbose: verbose,
		infoLog: log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime),
		warnLog: log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime),
		errLog:  log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime),
		dbgLog:  log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// NewSilent creates a logger that discards all output, for tests.
func NewSilent() *Logger {
	discard := log.New(io.Discard, "", 0)
	return &Logger{infoLog: discard, warnLog: discard, errLog: discard, dbgLog: discard}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if len(args) > 0 {
		l.infoLog.Printf(msg, args...)
	} else {
		l.infoLog.Println(msg)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if len(args) > 0 {
		l.warnLog.Printf(msg, args...)
	} else {
		l.warnLog.Println(msg)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		l.errLog.Printf(msg, args...)
	} else {
		l.errLog.Println(msg)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if !l.verbose {
		return
	}
	if len(args) > 0 {
		l.dbgLog.Printf(msg, args...)
	} else {
		l.dbgLog.Println(msg)
	}
}

// InfoFields logs msg with structured fields appended as key=value pairs.
func (l *Logger) InfoFields(msg string, fields ...Field) {
	l.infoLog.Println(l.formatFields(msg, fields...))
}

func (l *Logger) WarnFields(msg string, fields ...Field) {
	l.warnLog.Println(l.formatFields(msg, fields...))
}

func (l *Logger) ErrorFields(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err})
	}
	l.errLog.Println(l.formatFields(msg, fields...))
}

func (l *Logger) formatFields(msg string, fields ...Field) string {
	if len(fields) == 0 {
		return msg
	}
	parts := []string{msg}
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, l.formatValue(f.Value)))
	}
	return strings.Join(parts, " ")
}

func (l *Logger) formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		if strings.Contains(v, " ") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case error:
		return fmt.Sprintf("%q", v.Error())
	default:
		return fmt.Sprintf("%v", v)
	}
}
