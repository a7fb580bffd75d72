package logx

import (
	"fmt"
	"io"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	NOTICE
	WARN
	ERROR
	CRITICAL
	LevelCount
)

var levelNames = [LevelCount]string{
	DEBUG:    "debug",
	INFO:     "info",
	NOTICE:   "notice",
	WARN:     "warn",
	ERROR:    "error",
	CRITICAL: "critical",
}

func (l Level) String() string {
	if l >= 0 && l < LevelCount {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts level names as printed by Level.String.
// "warning" is accepted as alias of "warn".
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WARN, nil
	}
	for i := range levelNames {
		if levelNames[i] == s {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// LoggerX is shared sink which tags each message with section.
type LoggerX interface {
	Level() Level
	LogPrintX(section string, lvl Level, v ...interface{})
	LogPrintlnX(section string, lvl Level, v ...interface{})
	LogPrintfX(section string, lvl Level, fmt string, v ...interface{})
	LockWriteX(section string, lvl Level) bool
	io.WriteCloser
}

// Logger is view of LoggerX bound to single section.
type Logger interface {
	Level() Level
	LogPrint(lvl Level, v ...interface{})
	LogPrintln(lvl Level, v ...interface{})
	LogPrintf(lvl Level, fmt string, v ...interface{})
	LockWrite(lvl Level) bool
	io.WriteCloser
}

var _ Logger = LogToX{}

type LogToX struct {
	section string
	logx    LoggerX
}

func (l LogToX) Level() Level {
	return l.logx.Level()
}
func (l LogToX) LogPrint(lvl Level, v ...interface{}) {
	l.logx.LogPrintX(l.section, lvl, v...)
}
func (l LogToX) LogPrintln(lvl Level, v ...interface{}) {
	l.logx.LogPrintlnX(l.section, lvl, v...)
}
func (l LogToX) LogPrintf(lvl Level, fmt string, v ...interface{}) {
	l.logx.LogPrintfX(l.section, lvl, fmt, v...)
}
func (l LogToX) LockWrite(lvl Level) bool {
	return l.logx.LockWriteX(l.section, lvl)
}
func (l LogToX) Close() error {
	return l.logx.Close()
}
func (l LogToX) Write(b []byte) (int, error) {
	return l.logx.Write(b)
}

// NewLogToX binds section to logx.
// nil logx is replaced with NopLoggerX.
func NewLogToX(logx LoggerX, section string) LogToX {
	if logx == nil {
		logx = NopLoggerX{}
	}
	return LogToX{section: section, logx: logx}
}

var _ LoggerX = NopLoggerX{}

// NopLoggerX discards everything.
type NopLoggerX struct{}

func (NopLoggerX) Level() Level { return LevelCount }
func (NopLoggerX) LogPrintX(string, Level, ...interface{}) {}
func (NopLoggerX) LogPrintlnX(string, Level, ...interface{}) {}
func (NopLoggerX) LogPrintfX(string, Level, string, ...interface{}) {}
func (NopLoggerX) LockWriteX(string, Level) bool { return false }
func (NopLoggerX) Close() error { return nil }
func (NopLoggerX) Write(b []byte) (int, error) { return len(b), nil }
