// Package logging builds the Wails logger shared by the app and its services.
package logging

import (
	"fmt"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// New returns a logger writing to file (or stdout when file is empty) that
// drops messages below level.
func New(level, file string) (logger.Logger, logger.LogLevel, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, 0, err
	}
	var base logger.Logger
	if file != "" {
		base = logger.NewFileLogger(file)
	} else {
		base = logger.NewDefaultLogger()
	}
	return &leveled{next: base, level: lvl}, lvl, nil
}

func ParseLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logger.TRACE, nil
	case "debug":
		return logger.DEBUG, nil
	case "", "info":
		return logger.INFO, nil
	case "warn", "warning":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// Nop discards everything.
func Nop() logger.Logger { return nop{} }

type leveled struct {
	next  logger.Logger
	level logger.LogLevel
}

func (l *leveled) Print(message string) { l.next.Print(message) }

func (l *leveled) Trace(message string) {
	if l.level <= logger.TRACE {
		l.next.Trace(message)
	}
}

func (l *leveled) Debug(message string) {
	if l.level <= logger.DEBUG {
		l.next.Debug(message)
	}
}

func (l *leveled) Info(message string) {
	if l.level <= logger.INFO {
		l.next.Info(message)
	}
}

func (l *leveled) Warning(message string) {
	if l.level <= logger.WARNING {
		l.next.Warning(message)
	}
}

func (l *leveled) Error(message string) {
	if l.level <= logger.ERROR {
		l.next.Error(message)
	}
}

func (l *leveled) Fatal(message string) { l.next.Fatal(message) }

type nop struct{}

func (nop) Print(string)   {}
func (nop) Trace(string)   {}
func (nop) Debug(string)   {}
func (nop) Info(string)    {}
func (nop) Warning(string) {}
func (nop) Error(string)   {}
func (nop) Fatal(string)   {}

// Recorder keeps messages in memory. Tests use it to assert on log output.
type Recorder struct {
	Lines []string
}

func (r *Recorder) add(level, msg string) { r.Lines = append(r.Lines, level+": "+msg) }

func (r *Recorder) Print(m string)   { r.add("PRINT", m) }
func (r *Recorder) Trace(m string)   { r.add("TRACE", m) }
func (r *Recorder) Debug(m string)   { r.add("DEBUG", m) }
func (r *Recorder) Info(m string)    { r.add("INFO", m) }
func (r *Recorder) Warning(m string) { r.add("WARN", m) }
func (r *Recorder) Error(m string)   { r.add("ERROR", m) }
func (r *Recorder) Fatal(m string)   { r.add("FATAL", m) }
