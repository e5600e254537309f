// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	LevelEnv  = "CLOUDLAUNCH_LOG_LEVEL"
	FormatEnv = "CLOUDLAUNCH_LOG_FORMAT"
)

var (
	root     = logrus.New()
	initOnce sync.Once
)

// Configure applies CLOUDLAUNCH_LOG_LEVEL and CLOUDLAUNCH_LOG_FORMAT to the
// root logger. It is safe to call more than once; only the first call reads
// the environment.
func Configure() {
	initOnce.Do(func() {
		root.SetOutput(os.Stderr)
		root.SetLevel(ParseLevel(os.Getenv(LevelEnv)))
		if strings.EqualFold(os.Getenv(FormatEnv), "json") {
			root.SetFormatter(&logrus.JSONFormatter{})
		} else {
			root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}
	})
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// New returns a logger tagged with the given component name.
func New(component string) *logrus.Entry {
	Configure()
	return root.WithField("component", component)
}

// Debug reports whether debug logging is enabled.
func Debug() bool {
	Configure()
	return root.IsLevelEnabled(logrus.DebugLevel)
}

// Writer returns a writer that logs each line at info level. It backs the
// HTTP access log.
func Writer() io.Writer {
	Configure()
	return root.WriterLevel(logrus.InfoLevel)
}

// SetOutput redirects the root logger, mostly for tests.
func SetOutput(w io.Writer) {
	Configure()
	root.SetOutput(w)
}
