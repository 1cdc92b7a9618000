package utils

import (
	"log"
	"os"
)

// Logger is a thin prefix-aware wrapper around the standard logger shared by
// services, handlers and background workers.
type Logger struct {
	std *log.Logger
}

func NewLogger() *Logger {
	return &Logger{std: log.New(os.Stdout, "", log.LstdFlags|log.LUTC)}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("INFO "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("ERROR "+format, args...)
}
