package config

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger returns a logger writing to w at the configured level. Unknown levels
// fall back to info.
func (c Config) NewLogger(w io.Writer, prefix string) *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: true,
	})
}
