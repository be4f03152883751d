package plugins

import (
	"fmt"
	"time"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/di"
	"github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/observe"
)

// ResolvedData is one resolver's published payload inside an aggregate
// success state, in declaration order.
type ResolvedData struct {
	Token di.Token
	Data  any
}

// resolution tracks one resolver spec through loading.
type resolution struct {
	spec     component.ResolverSpec
	resolver component.Resolver
	task     *observe.Task
}

// Resolvers loads a component's declared data before its first real render.
//
// Each resolver's token is published immediately with a nil placeholder so
// consumers injecting the token during loading see "no data yet" rather than
// a resolution failure. A loading transition is emitted per state category
// (the whole component, or a named fragment for labeled resolvers), all
// resolvers run concurrently, and each result replaces its placeholder as it
// arrives. When a category's resolvers have all settled it gets a single
// terminal transition: any failure makes it an error (the first failure in
// declaration order); with no failures it is empty only when every resolver
// classified its data empty, and success otherwise.
func Resolvers() lifecycle.Plugin {
	return lifecycle.Plugin{
		ID:       "resolvers",
		Phase:    component.Created,
		Priority: 20,
		Execute: func(c *component.Component) *observe.Task {
			specs := c.Descriptor().Resolvers
			if len(specs) == 0 {
				return nil
			}

			for _, spec := range specs {
				c.SetInstance(spec.Token, nil)
			}

			groups := make(map[string][]*resolution)
			var labels []string
			for _, spec := range specs {
				if _, ok := groups[spec.Label]; !ok {
					labels = append(labels, spec.Label)
				}
				groups[spec.Label] = append(groups[spec.Label], &resolution{spec: spec})
			}

			for _, label := range labels {
				runGroup(c, label, groups[label])
			}
			return nil
		},
	}
}

// runGroup drives one state category's resolvers from loading to a terminal
// transition.
func runGroup(c *component.Component, label string, group []*resolution) {
	c.SetRenderState(component.RenderState{Phase: component.StateLoading, Label: label})

	unmount := c.Unmount()
	tasks := make([]*observe.Task, len(group))
	for i, res := range group {
		res.resolver, res.task = startResolver(c, res.spec)
		tasks[i] = res.task

		token := res.spec.Token
		res.task.Then(func(v any, err error) {
			if err != nil || unmount.Fired() {
				return
			}
			c.SetInstance(token, v)
		})
	}

	observe.All(tasks...).Then(func(any, error) {
		if unmount.Fired() {
			return
		}
		c.SetRenderState(settleGroup(c, label, group))
	})
}

// settleGroup classifies a category's settled resolutions into its terminal
// render state.
func settleGroup(c *component.Component, label string, group []*resolution) component.RenderState {
	var firstErr error
	allEmpty := true
	data := make([]ResolvedData, 0, len(group))

	for _, res := range group {
		v, err := res.task.Result()
		if err != nil {
			reportResolverError(c, res.spec.Token, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !isEmpty(res.resolver, v) {
			allEmpty = false
		}
		data = append(data, ResolvedData{Token: res.spec.Token, Data: v})
	}

	switch {
	case firstErr != nil:
		return component.RenderState{Phase: component.StateError, Err: firstErr, Label: label}
	case allEmpty:
		return component.RenderState{Phase: component.StateEmpty, Label: label}
	default:
		return component.RenderState{Phase: component.StateSuccess, Data: data, Label: label}
	}
}

// startResolver obtains the resolver instance and invokes it, normalizing
// the result to a task. A panic during resolution fails the task.
func startResolver(c *component.Component, spec component.ResolverSpec) (component.Resolver, *observe.Task) {
	r := spec.Resolver
	if r == nil {
		in := c.Injector()
		if in == nil {
			return nil, observe.FailedTask(fmt.Errorf("plugins: no injector to construct resolver %q on %s", spec.Token, c.ContextID()))
		}
		v, err := in.Construct(spec.Token, c)
		if err != nil {
			return nil, observe.FailedTask(err)
		}
		var ok bool
		if r, ok = v.(component.Resolver); !ok {
			return nil, observe.FailedTask(fmt.Errorf("plugins: token %q resolved to %T, not a resolver", spec.Token, v))
		}
	}

	var out any
	var recovered any
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				recovered = rec
			}
		}()
		out = r.Resolve(c)
	}()
	if recovered != nil {
		return r, observe.FailedTask(&errors.RecoveredValue{Value: recovered})
	}
	if task, ok := asTask(out); ok {
		return r, task
	}
	return r, observe.CompletedTask(out)
}

// isEmpty classifies resolved data, deferring to the resolver when it knows
// its own empty shape.
func isEmpty(r component.Resolver, v any) bool {
	if checker, ok := r.(component.EmptyChecker); ok {
		return checker.IsEmpty(v)
	}
	return v == nil
}

func reportResolverError(c *component.Component, token di.Token, err error) {
	rerr := &errors.RuntimeError{
		Op:        "plugins.Resolvers",
		Kind:      errors.KindResolver,
		Err:       fmt.Errorf("resolver %q: %w", token, err),
		Component: c.ID(),
		Timestamp: time.Now(),
	}
	errors.Report(rerr)
	c.ReportError(rerr)
}
