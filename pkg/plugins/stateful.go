package plugins

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/observe"
)

// statefulState is the per-component pipeline state shared between the
// render-state subscription and the render interceptor.
type statefulState struct {
	mu    sync.Mutex
	whole component.RenderState

	asyncPending   bool
	sawAsyncRender bool
	hasAsyncNode   bool
	asyncNode      component.Node

	hasFallbackNode bool
	fallbackNode    component.Node

	fellBack map[string]bool
}

func (st *statefulState) sawAsync() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sawAsyncRender
}

func (st *statefulState) fallbackOnce(logger hclog.Logger, c *component.Component, label string, category string) {
	st.mu.Lock()
	key := label + "/" + category
	logged := st.fellBack[key]
	st.fellBack[key] = true
	st.mu.Unlock()
	if !logged {
		logger.Debug("no render method for state, falling back to render",
			"component", c.ContextID(), "state", category, "label", label)
	}
}

// StatefulRender drives a component's output from its render-state stream.
//
// Each state transition selects the matching render method (renderLoading,
// renderError, renderEmpty), falling back to the main render when the method
// is missing; the fallback runs the main render at most once, with later
// method-less transitions reusing its output. Unlabeled
// transitions re-render the whole component; labeled transitions route the
// produced node to the matching fragment stream instead.
//
// A render method returning a task gets the implicit async treatment: a
// loading transition is emitted immediately, and the task's settlement emits
// success or error.
func StatefulRender(logger hclog.Logger) lifecycle.Plugin {
	if logger == nil {
		logger = hclog.Default()
	}
	logger = logger.Named("stateful")

	return lifecycle.Plugin{
		ID:       "stateful-render",
		Phase:    component.Created,
		Priority: 5,
		Execute: func(c *component.Component) *observe.Task {
			st := &statefulState{
				whole:    component.RenderState{Phase: component.StateIdle},
				fellBack: make(map[string]bool),
			}

			c.AddInterceptor(5, func(next component.RenderFunc) component.RenderFunc {
				return func(c *component.Component) any {
					return st.render(logger, c, next)
				}
			})

			c.RenderStates().SubscribeUntil(c.Unmount(), func(s component.RenderState) {
				if s.Label != "" {
					st.renderFragment(logger, c, s)
					return
				}
				st.mu.Lock()
				st.whole = s
				st.mu.Unlock()
				c.Invalidate()
			})
			return nil
		},
	}
}

// render produces the whole-component output for the current state.
func (st *statefulState) render(logger hclog.Logger, c *component.Component, next component.RenderFunc) any {
	st.mu.Lock()
	state := st.whole
	pending := st.asyncPending
	node, hasNode := st.asyncNode, st.hasAsyncNode
	st.mu.Unlock()

	desc := c.Descriptor()
	switch state.Phase {
	case component.StateLoading:
		if desc.RenderLoading != nil {
			return st.finish(c, desc.RenderLoading(c))
		}
		if pending {
			// The main render is the thing we are waiting on.
			return component.PlaceholderNode("")
		}
		return st.fallbackRender(logger, c, "loading", next)

	case component.StateError:
		if desc.RenderError != nil {
			return st.finish(c, desc.RenderError(c))
		}
		if hasNode || state.Err != nil && st.sawAsync() {
			// An async render already failed once; re-running it would
			// loop forever.
			return component.Node{}
		}
		return st.fallbackRender(logger, c, "error", next)

	case component.StateEmpty:
		if desc.RenderEmpty != nil {
			return st.finish(c, desc.RenderEmpty(c))
		}
		return st.fallbackRender(logger, c, "empty", next)

	case component.StateSuccess:
		if hasNode {
			return node
		}
		return st.finish(c, next(c))

	default: // StateIdle
		return st.finish(c, next(c))
	}
}

// fallbackRender invokes the main render in place of a missing per-state
// method. The output is memoized: when a second transitional state also lacks
// its method, the first fallback's node is reused instead of re-invoking
// render, so a render with side effects runs at most once across fallbacks.
func (st *statefulState) fallbackRender(logger hclog.Logger, c *component.Component, category string, next component.RenderFunc) any {
	st.fallbackOnce(logger, c, "", category)

	st.mu.Lock()
	if st.hasFallbackNode {
		node := st.fallbackNode
		st.mu.Unlock()
		return node
	}
	st.mu.Unlock()

	out := st.finish(c, next(c))
	if n, ok := out.(component.Node); ok && n.Kind != component.NodePlaceholder {
		st.mu.Lock()
		st.fallbackNode, st.hasFallbackNode = n, true
		st.mu.Unlock()
	}
	return out
}

// finish intercepts task-valued render results: it emits the implicit
// loading transition and wires settlement back into the state stream.
// Non-task results pass through untouched.
func (st *statefulState) finish(c *component.Component, out any) any {
	task, ok := asTask(out)
	if !ok {
		return out
	}

	st.mu.Lock()
	if st.asyncPending {
		st.mu.Unlock()
		return component.PlaceholderNode("")
	}
	st.asyncPending = true
	st.sawAsyncRender = true
	st.mu.Unlock()

	unmount := c.Unmount()
	if !task.Settled() && !unmount.Fired() {
		c.SetRenderState(component.RenderState{Phase: component.StateLoading})
	}
	task.Then(func(v any, err error) {
		st.mu.Lock()
		st.asyncPending = false
		if err == nil {
			if n, ok := v.(component.Node); ok {
				st.asyncNode = n
			} else {
				st.asyncNode = component.Node{}
			}
			st.hasAsyncNode = true
		}
		st.mu.Unlock()

		if unmount.Fired() {
			return
		}
		if err != nil {
			c.ReportError(err)
			c.SetRenderState(component.RenderState{Phase: component.StateError, Err: err})
			return
		}
		c.SetRenderState(component.RenderState{Phase: component.StateSuccess, Data: v})
	})

	// A task settled by the time Then returned already pushed its terminal
	// state; returning a placeholder now would overwrite the real output.
	st.mu.Lock()
	pending := st.asyncPending
	node, has := st.asyncNode, st.hasAsyncNode
	st.mu.Unlock()
	if !pending {
		if has {
			return node
		}
		return component.Node{}
	}
	// Still in flight: render the loading representation so the emission
	// order stays consistent with the loading transition just pushed.
	if fn := c.Descriptor().RenderLoading; fn != nil {
		if out := fn(c); out != nil {
			if _, isTask := asTask(out); !isTask {
				return out
			}
		}
	}
	return component.PlaceholderNode("")
}

// renderFragment produces one fragment's output for a labeled transition and
// emits it on the fragment stream.
func (st *statefulState) renderFragment(logger hclog.Logger, c *component.Component, s component.RenderState) {
	desc := c.Descriptor()
	var fn component.RenderFunc
	category := ""
	switch s.Phase {
	case component.StateLoading:
		fn, category = desc.RenderLoading, "loading"
	case component.StateError:
		fn, category = desc.RenderError, "error"
	case component.StateEmpty:
		fn, category = desc.RenderEmpty, "empty"
	}
	if fn == nil {
		if category != "" {
			st.fallbackOnce(logger, c, s.Label, category)
		}
		fn = c.BaseRender()
	}

	fragment := c.Fragment(s.Label)
	out := fn(c)
	if task, ok := asTask(out); ok {
		fragment.Next(component.PlaceholderNode(s.Label))
		unmount := c.Unmount()
		task.Then(func(v any, err error) {
			if unmount.Fired() {
				return
			}
			if err != nil {
				c.ReportError(err)
				return
			}
			if n, ok := v.(component.Node); ok {
				fragment.Next(n)
			}
		})
		return
	}
	switch n := out.(type) {
	case component.Node:
		fragment.Next(n)
	case nil:
		fragment.Next(component.Node{})
	default:
		fragment.Next(component.Node{})
	}
}
