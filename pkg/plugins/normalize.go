package plugins

import "github.com/nextcore/axon/pkg/observe"

// firstTasker is satisfied by observe.Subject; a stream-valued result
// normalizes to its first emission.
type firstTasker interface {
	FirstTask() *observe.Task
}

// asTask normalizes an asynchronous result: a *observe.Task passes through,
// a stream yields its first emission. Anything else is not asynchronous.
func asTask(v any) (*observe.Task, bool) {
	switch t := v.(type) {
	case *observe.Task:
		return t, t != nil
	case firstTasker:
		return t.FirstTask(), true
	default:
		return nil, false
	}
}
