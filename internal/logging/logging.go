// Package logging configures the process-wide charmbracelet/log logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix is shown in front of every log line.
const Prefix = "gcloud-switch"

// New returns a logger writing to w at level. Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// Setup installs a stderr logger as the default. verbose forces debug.
func Setup(level string, verbose bool) *log.Logger {
	if verbose {
		level = "debug"
	}
	l := New(os.Stderr, level)
	log.SetDefault(l)
	return l
}

// ToFile redirects the default logger to an append-only file at path. The
// returned function restores stderr and closes the file.
func ToFile(path, level string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	prev := log.Default()
	l := New(f, level)
	l.SetReportTimestamp(true)
	l.SetTimeFormat(time.DateTime)
	l.SetFormatter(log.LogfmtFormatter)
	log.SetDefault(l)
	return func() error {
		log.SetDefault(prev)
		return f.Close()
	}, nil
}
