// Package errors provides structured error handling for the axon runtime.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorKind identifies the category of a runtime error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindResolution indicates a dependency token could not be resolved.
	KindResolution
	// KindValidation indicates a dependency graph validation failure.
	KindValidation
	// KindPlugin indicates a lifecycle plugin execution failure.
	KindPlugin
	// KindGuard indicates a guard evaluation failure.
	KindGuard
	// KindResolver indicates a resolver execution failure.
	KindResolver
	// KindCleanup indicates a cleanup callback failure.
	KindCleanup
	// KindRender indicates a render function failure.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindValidation:
		return "validation"
	case KindPlugin:
		return "plugin"
	case KindGuard:
		return "guard"
	case KindResolver:
		return "resolver"
	case KindCleanup:
		return "cleanup"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// RuntimeError represents a structured error in the axon runtime.
type RuntimeError struct {
	// Op is the operation that failed (e.g., "lifecycle.RunCreated").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Component is the instance id of the component involved, if any.
	Component string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RuntimeError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s [%s] component=%s: %v", e.Op, e.Kind, e.Component, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ResolutionError indicates a dependency token is unsatisfiable anywhere on
// the requesting component's parent chain. This is a structural programming
// mistake: it propagates as a returned error rather than being captured into
// render-state.
type ResolutionError struct {
	// Token is the unresolved token.
	Token string
	// Requester is the instance id of the component that started resolution.
	Requester string
}

func (e *ResolutionError) Error() string {
	if e.Requester != "" {
		return fmt.Sprintf("di: no provider for token %q reachable from component %s", e.Token, e.Requester)
	}
	return fmt.Sprintf("di: no provider for token %q", e.Token)
}

// MissingDependency is one consumer → missing-dependency pair found during
// graph validation.
type MissingDependency struct {
	Consumer   string
	Dependency string
}

// ValidationError is the aggregate dependency graph validation failure.
// It lists every missing registration and every cycle found in a single
// error so one validation pass reports all problems at once.
type ValidationError struct {
	Missing []MissingDependency
	// Cycles holds each detected cycle as the ordered list of tokens on it,
	// e.g. ["A", "B", "C"] for A → B → C → A.
	Cycles [][]string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("di: dependency graph validation failed")
	for _, m := range e.Missing {
		fmt.Fprintf(&sb, "\n  missing: %s -> %s (not registered)", m.Consumer, m.Dependency)
	}
	for _, cycle := range e.Cycles {
		fmt.Fprintf(&sb, "\n  cycle: %s -> %s", strings.Join(cycle, " -> "), cycle[0])
	}
	return sb.String()
}

// PluginError represents a failure inside a lifecycle plugin's execute call.
// Plugin errors are caught, logged, and forwarded to the owning component's
// error stream; they never abort sibling plugins or the phase sequence.
type PluginError struct {
	// Plugin is the id of the failing plugin.
	Plugin string
	// Phase is the lifecycle phase during which the failure occurred.
	Phase string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// Component is the instance id of the component being processed.
	Component string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *PluginError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in plugin %s at phase %s: %v", e.Plugin, e.Phase, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error in plugin %s at phase %s: %v", e.Plugin, e.Phase, e.Err)
	}
	return fmt.Sprintf("unknown error in plugin %s at phase %s", e.Plugin, e.Phase)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// Handler receives errors reported by the axon runtime.
type Handler interface {
	// HandleError is called when a runtime error occurs.
	HandleError(err *RuntimeError)
	// HandlePluginError is called when a lifecycle plugin fails.
	HandlePluginError(err *PluginError)
}
