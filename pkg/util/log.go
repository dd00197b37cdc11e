// Package util provides logging and error helpers shared across the kernel.
package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the package-wide logger instance used by every kernel package.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLogLevel parses and applies a logrus level name.
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput redirects log output, used by tests to capture records.
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches the logger to JSON records.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns an entry tagged with a single field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns an entry tagged with several fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithComponent tags a log entry with the component path that produced it.
func WithComponent(path string) *logrus.Entry {
	return Logger.WithField("component", path)
}

// WithPhase tags a log entry with the lifecycle phase currently executing.
func WithPhase(phase string) *logrus.Entry {
	return Logger.WithField("phase", phase)
}
