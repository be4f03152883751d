package observe

import "sync"

// Subscription represents an active listener on a Subject or Signal.
// Cancel is idempotent and safe to call from any goroutine.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel stops delivery to the subscriber. Emissions already being delivered
// may still complete; no new emissions are observed after Cancel returns.
func (s *Subscription) Cancel() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

type subscriber[T any] struct {
	handler    func(T)
	onComplete func()
	cancelled  bool
	seen       uint64 // sequence number of the last emission delivered
}

type emission[T any] struct {
	seq   uint64
	value T
}

// Subject is an ordered, multi-subscriber broadcast stream that replays its
// most recent value to new subscribers.
//
// Delivery order is the emission order: a subscriber never observes emission
// N+1 before emission N, even when Next is called reentrantly from inside a
// handler (reentrant emissions are queued and drained in order).
//
// Subject is safe for concurrent use. Handlers run synchronously on the
// goroutine that called Next.
type Subject[T any] struct {
	mu       sync.Mutex
	subs     []*subscriber[T]
	seq      uint64
	last     emission[T]
	hasLast  bool
	done     bool
	queue    []emission[T]
	draining bool
}

// NewSubject creates an empty Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Next broadcasts a value to all subscribers in emission order.
// It is a no-op after Complete.
func (s *Subject[T]) Next(value T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.seq++
	e := emission[T]{seq: s.seq, value: value}
	s.last = e
	s.hasLast = true
	s.queue = append(s.queue, e)
	if s.draining {
		// A handler further up the stack is mid-delivery; it will drain
		// this emission after the current one finishes.
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.drainLocked()
}

// drainLocked delivers queued emissions until the queue is empty.
// Called with s.mu held; releases and reacquires it around handler calls.
func (s *Subject[T]) drainLocked() {
	for len(s.queue) > 0 {
		e := s.queue[0]
		s.queue = s.queue[1:]
		subs := make([]*subscriber[T], len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()
		for _, sub := range subs {
			s.mu.Lock()
			skip := sub.cancelled || sub.seen >= e.seq
			if !skip {
				sub.seen = e.seq
			}
			s.mu.Unlock()
			if !skip {
				sub.handler(e.value)
			}
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// Complete marks the stream finished. Subscribers' completion callbacks run
// once; further Next calls are ignored. New subscribers still receive the
// replayed last value followed by the completion callback.
func (s *Subject[T]) Complete() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	subs := make([]*subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, sub := range subs {
		if !sub.cancelled && sub.onComplete != nil {
			sub.onComplete()
		}
	}
}

// Done reports whether Complete has been called.
func (s *Subject[T]) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Value returns the most recent emission, if any.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.value, s.hasLast
}

// Subscribe registers a handler and immediately replays the most recent
// value when one exists. It returns a Subscription for cancellation.
func (s *Subject[T]) Subscribe(handler func(T)) *Subscription {
	return s.SubscribeWith(handler, nil)
}

// SubscribeWith is Subscribe with an additional completion callback.
// If the subject is already complete, the last value (if any) is replayed
// and onComplete runs before SubscribeWith returns.
func (s *Subject[T]) SubscribeWith(handler func(T), onComplete func()) *Subscription {
	sub := &subscriber[T]{handler: handler, onComplete: onComplete}
	s.mu.Lock()
	var (
		replay     emission[T]
		hasReplay  bool
		alreadyDone = s.done
	)
	if s.hasLast {
		replay = s.last
		hasReplay = true
		sub.seen = s.last.seq
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	if hasReplay {
		sub.handler(replay.value)
	}
	if alreadyDone && onComplete != nil {
		onComplete()
	}

	return &Subscription{cancel: func() {
		s.mu.Lock()
		sub.cancelled = true
		for i, existing := range s.subs {
			if existing == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}}
}

// SubscribeUntil subscribes a handler whose subscription is cancelled when
// the signal fires. This is the standard way lifecycle machinery scopes a
// subscription to a component's unmount.
func (s *Subject[T]) SubscribeUntil(sig *Signal, handler func(T)) *Subscription {
	sub := s.Subscribe(handler)
	if sig != nil {
		sig.OnFire(sub.Cancel)
	}
	return sub
}

// FirstTask returns a Task that settles with the next emission. If the
// subject already holds a value it completes immediately with that value.
// If the subject completes without ever emitting, the task completes with
// a nil value.
func (s *Subject[T]) FirstTask() *Task {
	s.mu.Lock()
	if s.hasLast {
		v := s.last.value
		s.mu.Unlock()
		return CompletedTask(v)
	}
	s.mu.Unlock()

	task := NewTask()
	var sub *Subscription
	sub = s.SubscribeWith(func(v T) {
		if task.Complete(v) && sub != nil {
			sub.Cancel()
		}
	}, func() {
		task.Complete(nil)
	})
	task.Then(func(any, error) { sub.Cancel() })
	return task
}
