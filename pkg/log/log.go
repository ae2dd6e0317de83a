// Package log builds the logrus logger the kernel packages share, and the
// field helpers that tag every scheduler and lifecycle line with the
// process identity and tick it belongs to.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/riscvkern/riscvkern/pkg/config"
)

// NewLogger returns the shared logger entry: a JSON logger writing to
// kernel.log in the config directory when debugging, a discard logger
// otherwise.
func NewLogger(config *config.AppConfig) *logrus.Entry {
	var logger *logrus.Logger
	if config.Debug || os.Getenv("DEBUG") == "TRUE" {
		logger = newDevelopmentLogger(config)
	} else {
		logger = newProductionLogger()
	}

	// highly recommended: tail -f kernel.log | humanlog
	// https://github.com/aybabtme/humanlog
	logger.Formatter = &logrus.JSONFormatter{}

	return logger.WithFields(logrus.Fields{
		"debug":     config.Debug,
		"version":   config.Version,
		"commit":    config.Commit,
		"buildDate": config.BuildDate,
	})
}

// WithTick tags an entry with the scheduler tick timestamp, so a kernel.log
// line can be lined up against the monitor's tick counter and against sleep
// deadlines.
func WithTick(entry *logrus.Entry, now uint64) *logrus.Entry {
	return entry.WithField("tick", now)
}

// WithProc tags an entry with a process identity: its pid and its state at
// the time of logging. Fork, exec, exit and every scheduler dispatch log
// through this (sleep and wait do not log), so the dispatch line that
// precedes a kernel-invariant error records which process the hart was
// holding.
func WithProc(entry *logrus.Entry, pid uint32, state fmt.Stringer) *logrus.Entry {
	return entry.WithFields(logrus.Fields{
		"pid":   pid,
		"state": state.String(),
	})
}

func getLogLevel() logrus.Level {
	strLevel := os.Getenv("LOG_LEVEL")
	level, err := logrus.ParseLevel(strLevel)
	if err != nil {
		return logrus.DebugLevel
	}
	return level
}

func newDevelopmentLogger(config *config.AppConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(getLogLevel())

	// a kernel simulator should not die because its log file is unwritable;
	// fall back to stderr and say so
	file, err := os.OpenFile(filepath.Join(config.ConfigDir, "kernel.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		logger.SetOutput(os.Stderr)
		logger.WithError(err).Warn("unable to open kernel.log, logging to stderr")
		return logger
	}
	logger.SetOutput(file)
	return logger
}

func newProductionLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}
