// internal/logger/logger.go
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	std  *logrus.Logger
	once sync.Once
)

// NewLogger returns the process-wide logrus logger.
// Every package keeps its own handle (customLog) but they all share one
// instance, so Configure applies everywhere.
func NewLogger() *logrus.Logger {
	once.Do(func() {
		std = logrus.New()
		std.SetOutput(os.Stdout)
		std.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		std.SetLevel(logrus.InfoLevel)
	})
	return std
}

// Configure sets level and output format ("text" or "json").
// Unknown levels fall back to info.
func Configure(level, format string) {
	l := NewLogger()

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		l.Warnf("Unknown log level '%s', using info", level)
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	}
}
