package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// newLogger builds the CLI logger. Simulation output goes to stdout, so the
// logger writes to w, normally stderr.
func newLogger(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}

	var formatter log.Formatter
	switch format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		Prefix:          "qirsim",
		ReportTimestamp: formatter != log.TextFormatter,
	}), nil
}
