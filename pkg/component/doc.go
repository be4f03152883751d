// Package component provides the component instance model and the
// destroy/cleanup chain.
//
// A Component is a long-lived object: it holds immutable props, an opaque
// child subtree description, a parent pointer, a lazily attached injector, a
// lifecycle phase, a render-state stream, and an ordered list of cleanup
// callbacks. Everything else in the runtime — the lifecycle manager, the
// dependency injector, the render pipeline — operates on components; the
// component itself has no knowledge of plugins.
//
// # Descriptors
//
// Component metadata is declared in an explicit Descriptor table per
// component type: providers, guards, resolvers, watches, mount hooks, and
// the render functions. There is no reflection-based discovery; a Descriptor
// is plain data the runtime reads at creation time.
//
// # Render interceptors
//
// A component's effective render function is an explicit ordered chain of
// interceptors resolved once during Created-phase setup. Plugins register
// interceptors with a priority; lower priorities end up outermost, so a
// guard (priority 3) gates the stateful render pipeline (priority 5), which
// in turn selects among the author's render methods.
//
// # Destruction
//
// Destroy is idempotent and propagates bottom-up: all descendants are
// destroyed before the parent's own BeforeDestroy → Destroyed transition
// completes, so a child never observes a dangling parent injector
// mid-cleanup.
package component
