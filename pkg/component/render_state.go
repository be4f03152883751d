package component

import "fmt"

// StatePhase tags a render-state emission.
type StatePhase int

const (
	// StateIdle is the initial state before any async work starts; it
	// renders through the original render function.
	StateIdle StatePhase = iota
	// StateLoading indicates async data is in flight.
	StateLoading
	// StateSuccess indicates data arrived.
	StateSuccess
	// StateError indicates async work failed.
	StateError
	// StateEmpty indicates async work completed with no data.
	StateEmpty
)

func (p StatePhase) String() string {
	switch p {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	default:
		return fmt.Sprintf("StatePhase(%d)", int(p))
	}
}

// RenderState is the tagged union describing what stage of async data
// loading a component — or a named fragment within it — is currently in.
type RenderState struct {
	Phase StatePhase
	// Data carries the resolved payload for StateSuccess emissions.
	Data any
	// Err carries the failure for StateError emissions.
	Err error
	// Label partitions the state into an independently resolving named
	// fragment. Empty targets the component's whole output.
	Label string
}
