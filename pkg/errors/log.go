package errors

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

// LogHandler is a Handler that logs errors to stderr.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

// HandleError logs a RuntimeError to stderr.
func (h *LogHandler) HandleError(err *RuntimeError) {
	if err == nil {
		return
	}
	if h.Verbose {
		fmt.Fprintf(os.Stderr, "[axon error] %s [%s]", err.Op, err.Kind)
		if err.Component != "" {
			fmt.Fprintf(os.Stderr, " component=%s", err.Component)
		}
		fmt.Fprintf(os.Stderr, ": %v\n", err.Err)
		if err.StackTrace != "" {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", err.StackTrace)
		}
	} else {
		fmt.Fprintf(os.Stderr, "[axon error] %s: %v\n", err.Op, err.Err)
	}
}

// HandlePluginError logs a PluginError to stderr.
func (h *LogHandler) HandlePluginError(err *PluginError) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "[axon plugin error] %s\n", err.Error())
	if h.Verbose && err.StackTrace != "" {
		fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", err.StackTrace)
	}
}

// HCLogHandler is a Handler that forwards errors to an hclog.Logger.
type HCLogHandler struct {
	Logger hclog.Logger
}

// NewHCLogHandler wraps logger in a Handler. A nil logger falls back to
// hclog.Default().
func NewHCLogHandler(logger hclog.Logger) *HCLogHandler {
	if logger == nil {
		logger = hclog.Default()
	}
	return &HCLogHandler{Logger: logger}
}

// HandleError logs a RuntimeError with structured fields.
func (h *HCLogHandler) HandleError(err *RuntimeError) {
	if err == nil {
		return
	}
	h.Logger.Error("runtime error",
		"op", err.Op,
		"kind", err.Kind.String(),
		"component", err.Component,
		"error", err.Err,
	)
}

// HandlePluginError logs a PluginError with structured fields.
func (h *HCLogHandler) HandlePluginError(err *PluginError) {
	if err == nil {
		return
	}
	h.Logger.Error("plugin error",
		"plugin", err.Plugin,
		"phase", err.Phase,
		"component", err.Component,
		"recovered", err.Recovered,
		"error", err.Err,
	)
}
