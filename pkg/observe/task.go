package observe

import "sync"

// Task is a single-assignment asynchronous result: it settles exactly once,
// either with a value (Complete) or an error (Fail). Callbacks registered via
// Then run in registration order; callbacks registered after settlement run
// immediately on the caller's goroutine.
//
// Task is safe for concurrent use.
type Task struct {
	mu        sync.Mutex
	settled   bool
	value     any
	err       error
	callbacks []func(any, error)
	done      chan struct{}
}

// NewTask creates an unsettled Task.
func NewTask() *Task {
	return &Task{done: make(chan struct{})}
}

// CompletedTask returns a Task already completed with value.
func CompletedTask(value any) *Task {
	t := NewTask()
	t.Complete(value)
	return t
}

// FailedTask returns a Task already failed with err.
func FailedTask(err error) *Task {
	t := NewTask()
	t.Fail(err)
	return t
}

// Go runs fn on a new goroutine and returns a Task that settles with its
// result. A panic in fn settles the task with a PanicValueError.
func Go(fn func() (any, error)) *Task {
	t := NewTask()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fail(PanicValueError{Value: r})
			}
		}()
		v, err := fn()
		if err != nil {
			t.Fail(err)
			return
		}
		t.Complete(v)
	}()
	return t
}

// PanicValueError wraps a recovered panic value from Go.
type PanicValueError struct{ Value any }

func (e PanicValueError) Error() string { return "panic in task" }

// Complete settles the task with a value. It reports whether this call was
// the one that settled the task (first settle wins).
func (t *Task) Complete(value any) bool {
	return t.settle(value, nil)
}

// Fail settles the task with an error. It reports whether this call was the
// one that settled the task (first settle wins).
func (t *Task) Fail(err error) bool {
	return t.settle(nil, err)
}

func (t *Task) settle(value any, err error) bool {
	t.mu.Lock()
	if t.settled {
		t.mu.Unlock()
		return false
	}
	t.settled = true
	t.value = value
	t.err = err
	callbacks := t.callbacks
	t.callbacks = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(value, err)
	}
	return true
}

// Then registers a callback invoked with the task's result. If the task is
// already settled, fn runs immediately.
func (t *Task) Then(fn func(value any, err error)) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	if t.settled {
		v, err := t.value, t.err
		t.mu.Unlock()
		fn(v, err)
		return
	}
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}

// Settled reports whether the task has a result.
func (t *Task) Settled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled
}

// Result returns the task's value and error. It is only meaningful after
// the task has settled; check Settled or wait on Done first.
func (t *Task) Result() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Done returns a channel closed when the task settles.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// All returns a Task that completes with the values of all tasks, in the
// given order, once every task has settled. If any task failed, All fails
// with the first failure encountered in argument order; it still waits for
// every task to settle before settling itself.
func All(tasks ...*Task) *Task {
	result := NewTask()
	if len(tasks) == 0 {
		result.Complete([]any(nil))
		return result
	}

	var (
		mu      sync.Mutex
		pending = len(tasks)
		values  = make([]any, len(tasks))
	)
	finish := func() {
		for _, t := range tasks {
			if _, err := t.Result(); err != nil {
				result.Fail(err)
				return
			}
		}
		result.Complete(values)
	}
	for i, t := range tasks {
		index := i
		t.Then(func(v any, _ error) {
			mu.Lock()
			values[index] = v
			pending--
			last := pending == 0
			mu.Unlock()
			if last {
				finish()
			}
		})
	}
	return result
}
