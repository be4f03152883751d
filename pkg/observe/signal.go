package observe

import "sync"

// Signal is a one-shot broadcast: it fires at most once and notifies every
// registered callback exactly once. The runtime uses one Signal per component
// as the unmount notification that scopes all of that component's
// subscriptions and in-flight asynchronous work.
//
// Signal is safe for concurrent use.
type Signal struct {
	mu        sync.Mutex
	fired     bool
	ch        chan struct{}
	callbacks []func()
}

// NewSignal creates an unfired Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Fire triggers the signal. Subsequent calls are no-ops.
func (s *Signal) Fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	callbacks := s.callbacks
	s.callbacks = nil
	close(s.ch)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Fired reports whether the signal has fired.
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Done returns a channel that is closed when the signal fires.
func (s *Signal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// OnFire registers a callback. If the signal has already fired, the callback
// runs immediately. The returned function unregisters the callback; it is a
// no-op once the signal has fired.
func (s *Signal) OnFire(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		fn()
		return func() {}
	}
	index := len(s.callbacks)
	s.callbacks = append(s.callbacks, fn)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if index < len(s.callbacks) {
			s.callbacks[index] = func() {}
		}
	}
}
