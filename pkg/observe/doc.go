// Package observe provides the reactive primitives the runtime is built on:
// ordered multi-subscriber subjects with last-value replay, one-shot broadcast
// signals, and single-assignment tasks for asynchronous results.
//
// # Subjects
//
// Subject is the backbone of lifecycle and render-state propagation. Emissions
// are delivered to every subscriber in emission order, and a new subscriber
// immediately receives the most recent value, so late observers never miss the
// current state:
//
//	state := observe.NewSubject[int]()
//	state.Next(1)
//	state.Subscribe(func(v int) { ... }) // receives 1, then future emissions
//
// # Signals
//
// Signal is a one-shot broadcast used for unmount notification. Subscriptions
// created with SubscribeUntil are cancelled automatically when the signal
// fires, which is how every per-component subscription is scoped to that
// component's lifetime.
//
// # Tasks
//
// Task is the promise equivalent: it settles exactly once with a value or an
// error, and callbacks registered after settlement run immediately. Guard and
// resolver results of any shape (plain value, Task, Subject) normalize to a
// Task before the runtime consumes them.
package observe
