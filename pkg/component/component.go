package component

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextcore/axon/pkg/di"
	"github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/observe"
)

// Component is one logical UI node per mount: a long-lived instance holding
// props, the parent pointer, the injector slot, lifecycle signals, and the
// render-state stream.
type Component struct {
	desc  *Descriptor
	id    string
	props Props

	mu         sync.Mutex
	childNodes []Node
	parent     *Component
	kids       []*Component
	injector   *di.Injector

	phase     Phase
	current   RenderState
	destroyed bool

	providers map[di.Token]di.Provider
	instances map[di.Token]any
	scoped    map[di.Token]any

	cleanups     []func()
	interceptors []interceptorEntry
	base         RenderFunc
	render       RenderFunc

	phases    *observe.Subject[Phase]
	states    *observe.Subject[RenderState]
	output    *observe.Subject[Node]
	errs      *observe.Subject[error]
	fragments map[string]*observe.Subject[Node]
	unmount   *observe.Signal
}

type interceptorEntry struct {
	priority int
	order    int
	wrap     Interceptor
}

// New creates a component instance from its descriptor and props.
// The instance starts in the Created phase.
func New(desc *Descriptor, props Props) *Component {
	if desc == nil {
		desc = &Descriptor{}
	}
	c := &Component{
		desc:      desc,
		id:        uuid.NewString(),
		props:     props,
		providers: make(map[di.Token]di.Provider),
		instances: make(map[di.Token]any),
		scoped:    make(map[di.Token]any),
		fragments: make(map[string]*observe.Subject[Node]),
		phases:    observe.NewSubject[Phase](),
		states:    observe.NewSubject[RenderState](),
		output:    observe.NewSubject[Node](),
		errs:      observe.NewSubject[error](),
		unmount:   observe.NewSignal(),
	}
	c.base = desc.Render
	if c.base == nil {
		c.base = func(*Component) any { return Node{} }
	}
	c.render = c.base
	return c
}

// ID returns the debug-only unique instance id.
func (c *Component) ID() string { return c.id }

// Name returns the descriptor's component type name.
func (c *Component) Name() string { return c.desc.Name }

// Descriptor returns the component's metadata table.
func (c *Component) Descriptor() *Descriptor { return c.desc }

// Props returns the immutable input record.
func (c *Component) Props() Props { return c.props }

// Prop returns one props entry.
func (c *Component) Prop(key string) (any, bool) {
	v, ok := c.props[key]
	return v, ok
}

// SetChildren assigns the opaque child subtree description. Slot assignment
// happens before render is first invoked.
func (c *Component) SetChildren(nodes []Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.childNodes = nodes
}

// ChildNodes returns the opaque child subtree description.
func (c *Component) ChildNodes() []Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.childNodes
}

// NamedChildren returns the child nodes assigned to a named slot.
func (c *Component) NamedChildren(slot string) []Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Node
	for _, n := range c.childNodes {
		if n.Slot == slot {
			out = append(out, n)
		}
	}
	return out
}

// DefaultChildren returns the child nodes not assigned to any named slot.
func (c *Component) DefaultChildren() []Node {
	return c.NamedChildren("")
}

// Parent returns the owning component, or nil at the root. The parent
// reference determines injector lookup order; it is a back-reference, never
// an ownership edge.
func (c *Component) Parent() *Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parent
}

// Children returns the live child component instances.
func (c *Component) Children() []*Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Component, len(c.kids))
	copy(out, c.kids)
	return out
}

// Depth returns the distance to the root component.
func (c *Component) Depth() int {
	depth := 0
	for cur := c.Parent(); cur != nil; cur = cur.Parent() {
		depth++
	}
	return depth
}

// AddChild attaches a child component. Attaching a component to one of its
// own descendants would create a parent cycle, which is a logic error and
// rejected.
func (c *Component) AddChild(child *Component) error {
	if child == nil {
		return fmt.Errorf("component: nil child")
	}
	for cur := c; cur != nil; cur = cur.Parent() {
		if cur == child {
			return fmt.Errorf("component: attaching %s under %s would create a parent cycle", child.id, c.id)
		}
	}
	child.mu.Lock()
	child.parent = c
	child.mu.Unlock()
	c.mu.Lock()
	c.kids = append(c.kids, child)
	c.mu.Unlock()
	return nil
}

func (c *Component) removeChild(child *Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, k := range c.kids {
		if k == child {
			c.kids = append(c.kids[:i], c.kids[i+1:]...)
			return
		}
	}
}

// SetInjector attaches the injector the component resolves through.
func (c *Component) SetInjector(in *di.Injector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injector = in
}

// Injector returns the attached injector, if any.
func (c *Component) Injector() *di.Injector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.injector
}

// Phase returns the current lifecycle phase.
func (c *Component) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Phases returns the lifecycle phase stream. Emissions are ordered and the
// most recent phase is replayed to new subscribers.
func (c *Component) Phases() *observe.Subject[Phase] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phases
}

// AdvanceTo transitions the component to a later phase and emits it on the
// phase stream. Phases are monotonic: regressions are rejected.
func (c *Component) AdvanceTo(phase Phase) error {
	c.mu.Lock()
	if phase <= c.phase && !(phase == Created && c.phase == Created) {
		current := c.phase
		c.mu.Unlock()
		return fmt.Errorf("component: phase regression %s -> %s on %s", current, phase, c.id)
	}
	c.phase = phase
	phases := c.phases
	c.mu.Unlock()
	phases.Next(phase)
	return nil
}

// RenderStates returns the render-state stream.
func (c *Component) RenderStates() *observe.Subject[RenderState] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states
}

// CurrentRenderState returns the component's whole-output state: the most
// recent unlabeled transition, or idle before any. Labeled fragment
// transitions do not affect it.
func (c *Component) CurrentRenderState() RenderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetRenderState emits a render-state transition. Consumers observe
// transitions strictly in emission order.
func (c *Component) SetRenderState(state RenderState) {
	c.mu.Lock()
	if state.Label == "" {
		c.current = state
	}
	states := c.states
	c.mu.Unlock()
	states.Next(state)
}

// Fragment returns the output stream for a named fragment — an
// independently resolving async region within this component.
func (c *Component) Fragment(label string) *observe.Subject[Node] {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.fragments[label]
	if !ok {
		f = observe.NewSubject[Node]()
		c.fragments[label] = f
	}
	return f
}

// Output returns the component's whole-output stream. The renderer
// collaborator observes it to learn what should occupy the component's
// position now.
func (c *Component) Output() *observe.Subject[Node] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// Errors returns the component's error channel.
func (c *Component) Errors() *observe.Subject[error] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// Unmount returns the one-shot unmount signal. Every subscription created on
// behalf of this component must be scoped to it.
func (c *Component) Unmount() *observe.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unmount
}

// Destroyed reports whether Destroy has run.
func (c *Component) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// ReportError emits err on the component's error channel, then cascades it
// to the nearest ancestor error boundary. Unhandled errors go to the global
// handler.
func (c *Component) ReportError(err error) {
	if err == nil {
		return
	}
	c.Errors().Next(err)
	for cur := c; cur != nil; cur = cur.Parent() {
		if cur.desc.OnError != nil && cur.desc.OnError(cur, err) {
			return
		}
	}
	errors.Report(&errors.RuntimeError{
		Op:        "component.ReportError",
		Kind:      errors.KindUnknown,
		Err:       err,
		Component: c.id,
		Timestamp: time.Now(),
	})
}

// OnCleanup registers a cleanup callback run during Destroy, in registration
// order. The returned function unregisters the callback.
func (c *Component) OnCleanup(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		// Already destroyed: run immediately, matching late OnDispose
		// semantics.
		fn()
		return func() {}
	}
	index := len(c.cleanups)
	c.cleanups = append(c.cleanups, fn)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if index < len(c.cleanups) {
			c.cleanups[index] = nil
		}
	}
}

// AddInterceptor registers a render interceptor at the given priority.
// Interceptors take effect when BuildRenderChain resolves the chain.
func (c *Component) AddInterceptor(priority int, wrap Interceptor) {
	if wrap == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, interceptorEntry{
		priority: priority,
		order:    len(c.interceptors),
		wrap:     wrap,
	})
}

// BuildRenderChain composes the registered interceptors around the original
// render function, exactly once per Created-phase setup. Lower priorities
// wrap outermost: a guard gates the stateful pipeline, which selects among
// the author's render methods.
func (c *Component) BuildRenderChain() {
	c.mu.Lock()
	entries := make([]interceptorEntry, len(c.interceptors))
	copy(entries, c.interceptors)
	c.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].order > entries[j].order
	})

	chain := c.base
	for _, e := range entries {
		chain = e.wrap(chain)
	}
	c.mu.Lock()
	c.render = chain
	c.mu.Unlock()
}

// BaseRender returns the author-written render function, unwrapped.
func (c *Component) BaseRender() RenderFunc { return c.base }

// Render invokes the component's render chain with panic recovery. A
// recovered panic is reported, surfaced on the component's error channel,
// and — unless the component is already in the error state — emitted as an
// ERROR render-state transition; the call itself returns an empty node.
func (c *Component) Render() any {
	c.mu.Lock()
	render := c.render
	c.mu.Unlock()

	var out any
	var recovered any
	func() {
		defer func() {
			if r := recover(); r != nil {
				recovered = r
			}
		}()
		out = render(c)
	}()

	if recovered != nil {
		err := &errors.RuntimeError{
			Op:         "component.Render",
			Kind:       errors.KindRender,
			Err:        &errors.RecoveredValue{Value: recovered},
			Component:  c.id,
			StackTrace: errors.CaptureStack(),
			Timestamp:  time.Now(),
		}
		errors.Report(err)
		c.ReportError(err)
		if c.CurrentRenderState().Phase != StateError {
			c.SetRenderState(RenderState{Phase: StateError, Err: err})
		}
		return Node{}
	}
	return out
}

// Invalidate recomputes the component's output and emits it on the output
// stream, prompting the renderer to re-pull this position.
func (c *Component) Invalidate() {
	v := c.Render()
	output := c.Output()
	switch out := v.(type) {
	case nil:
		output.Next(Node{})
	case Node:
		output.Next(out)
	case *observe.Task:
		output.Next(PlaceholderNode(""))
		unmount := c.Unmount()
		out.Then(func(result any, err error) {
			if unmount.Fired() {
				return
			}
			if err != nil {
				c.ReportError(err)
				return
			}
			if node, ok := result.(Node); ok {
				output.Next(node)
			}
		})
	default:
		c.ReportError(fmt.Errorf("component: render returned unsupported type %T", v))
		output.Next(Node{})
	}
}
