package component

import (
	"github.com/nextcore/axon/pkg/di"
	"github.com/nextcore/axon/pkg/observe"
)

// Props is a component's immutable input record.
type Props map[string]any

// RenderFunc produces a component's output. The result may be a Node, nil
// (renders nothing), or a *observe.Task settling with a Node for render
// methods that finish asynchronously.
type RenderFunc func(c *Component) any

// Interceptor wraps a render function. Interceptors are resolved into an
// explicit ordered chain once during Created-phase setup; a component's
// render is never reassigned after that.
type Interceptor func(next RenderFunc) RenderFunc

// Guard gates a component's render. CanActivate may return a bool, a
// *observe.Task, or any value with a FirstTask method (a Subject); all
// normalize to an asynchronous boolean. Fallback supplies the output
// rendered in place of the component when access is denied.
type Guard interface {
	CanActivate(c *Component) any
	Fallback(c *Component) Node
}

// GuardSpec declares one guard on a component: either a pre-built instance
// or a token constructed through the host component's injector so the
// guard's own dependencies resolve against the component hierarchy.
type GuardSpec struct {
	Guard Guard
	Token di.Token
}

// Resolver pre-populates a component's provider map with fetched data.
// Resolve may return a plain value, a *observe.Task, or any value with a
// FirstTask method.
type Resolver interface {
	Resolve(c *Component) any
}

// EmptyChecker is optionally implemented by resolvers to classify resolved
// data as empty. Without it, nil data is empty and anything else is success.
type EmptyChecker interface {
	IsEmpty(data any) bool
}

// ResolverSpec declares one resolver on a component. Token is the key the
// resolved data is published under in the component's provider map — the
// class-as-token convention — so consumers inject the resolver's token and
// transparently read its data. When Resolver is nil the instance is
// constructed from Token through the host component's injector. Label routes
// this resolver's state transitions to a named fragment instead of the
// aggregate component state.
type ResolverSpec struct {
	Token    di.Token
	Resolver Resolver
	Label    string
}

// Watch declares a subscription wired during the Mounted phase, before
// mount hooks run, so a mount handler that synchronously pushes values is
// observed.
type Watch struct {
	// Source selects the stream to observe on the host component.
	Source func(c *Component) *observe.Subject[any]
	// Handler runs per emission until the component unmounts.
	Handler func(c *Component, value any)
}

// Descriptor is the explicit metadata table for a component type. It
// replaces decorator-driven discovery: everything the runtime needs to know
// about a component type is declared here as plain data.
type Descriptor struct {
	// Name is the component type name, used in logs and debug output.
	Name string
	// Route is an optional path pattern read by a router collaborator.
	// The core carries it but does not interpret it.
	Route string

	// Providers are registered into the component's own provider map at
	// Created-phase setup, before anything resolves against the component.
	Providers []di.Provider
	Guards    []GuardSpec
	Resolvers []ResolverSpec
	Watches   []Watch

	// OnMount runs during the Mounted phase, after watches are wired.
	OnMount func(c *Component)
	// OnError makes the component an error boundary: it receives errors
	// cascading up from descendants and reports whether it handled them.
	OnError func(c *Component, err error) bool

	// Render is the author-written render function.
	Render RenderFunc
	// RenderLoading, RenderError, and RenderEmpty are optional per-state
	// render methods selected by the stateful render pipeline. A missing
	// method falls back to Render.
	RenderLoading RenderFunc
	RenderError   RenderFunc
	RenderEmpty   RenderFunc
}
