package model

import (
	"strings"
	"time"
)

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelNotice   Level = "NOTICE"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// ParseLevel normalizes a level name. Unknown names are upper-cased as-is.
func ParseLevel(s string) Level {
	upper := strings.ToUpper(strings.TrimSpace(s))
	switch upper {
	case "WARN":
		return LevelWarning
	case "ERR":
		return LevelError
	case "CRIT", "FATAL":
		return LevelCritical
	}
	return Level(upper)
}

// IsErrorLevel reports whether the level is ERROR or CRITICAL.
func (l Level) IsErrorLevel() bool {
	return l == LevelError || l == LevelCritical
}

// LogEntry is a single parsed log line.
type LogEntry struct {
	ID        string
	Timestamp time.Time
	Level     Level
	Daemon    string
	Message   string
}

// TimestampLayout is the format used when timestamps are matched or displayed.
const TimestampLayout = "2006-01-02 15:04:05.000"

// FormattedTimestamp returns the entry timestamp in TimestampLayout (UTC).
func (e LogEntry) FormattedTimestamp() string {
	return e.Timestamp.UTC().Format(TimestampLayout)
}
