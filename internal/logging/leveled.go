package logging

import (
	"fmt"
	"log"
)

// Leveled wraps a standard logger with leveled key-value output.
type Leveled struct {
	*log.Logger
}

// NewLeveled wraps l; a nil logger falls back to log.Default.
func NewLeveled(l *log.Logger) *Leveled {
	if l == nil {
		l = log.Default()
	}
	return &Leveled{Logger: l}
}

func (l *Leveled) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *Leveled) Warn(msg string, args ...interface{}) {
	l.logWithLevel("WARN", msg, args...)
}

func (l *Leveled) Error(msg string, args ...interface{}) {
	l.logWithLevel("ERROR", msg, args...)
}

func (l *Leveled) Debug(msg string, args ...interface{}) {
	l.logWithLevel("DEBUG", msg, args...)
}

func (l *Leveled) logWithLevel(level, msg string, args ...interface{}) {
	// Format key-value pairs
	var parts []interface{}
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}
