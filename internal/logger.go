package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logs always go to stderr: stdout carries exports and the MCP stream.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "cursor-chatlog",
})

// Logger returns the shared structured logger. Use it when a message
// carries key/value fields rather than a format string.
func Logger() *log.Logger {
	return logger
}

// SetVerbose switches between info and debug output.
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(log.DebugLevel)
		return
	}
	logger.SetLevel(log.InfoLevel)
}

// SetLogFormat selects the line format: text (default), json or logfmt.
func SetLogFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(log.TextFormatter)
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		return fmt.Errorf("unknown log format %q (want text, json or logfmt)", format)
	}
	return nil
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}
