package hostapi

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// LogLevel orders log severities. Values match enum retro_log_level.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

// String returns the upper-case level tag.
func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLogLevel maps a config string to a level. Unknown names give LogInfo.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogDebug
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	default:
		return LogInfo
	}
}

// LogSink is a leveled line sink.
type LogSink interface {
	Log(level LogLevel, msg string)
}

// StdLogger writes to a standard library logger, dropping lines below Min.
type StdLogger struct {
	Logger *log.Logger
	Min    LogLevel
}

// Log implements LogSink.
func (l *StdLogger) Log(level LogLevel, msg string) {
	if level < l.Min {
		return
	}
	out := l.Logger
	if out == nil {
		out = log.Default()
	}
	out.Printf("[%s] %s", level, strings.TrimRight(msg, "\n"))
}

// MemoryLogger keeps every line in memory. Tests use it to assert on
// warnings.
type MemoryLogger struct {
	mu    sync.Mutex
	lines []LogLine
}

// LogLine is one captured log call.
type LogLine struct {
	Level LogLevel
	Msg   string
}

// Log implements LogSink.
func (m *MemoryLogger) Log(level LogLevel, msg string) {
	m.mu.Lock()
	m.lines = append(m.lines, LogLine{Level: level, Msg: msg})
	m.mu.Unlock()
}

// Lines returns a copy of the captured lines.
func (m *MemoryLogger) Lines() []LogLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogLine, len(m.lines))
	copy(out, m.lines)
	return out
}

// Contains reports whether a line at level contains substr.
func (m *MemoryLogger) Contains(level LogLevel, substr string) bool {
	for _, l := range m.Lines() {
		if l.Level == level && strings.Contains(l.Msg, substr) {
			return true
		}
	}
	return false
}
