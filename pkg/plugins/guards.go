package plugins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/observe"
)

const (
	gateEvaluating = iota
	gateAllowed
	gateDenied
)

// guardGate is the shared decision state between a component's guard
// evaluation and its render interceptor.
type guardGate struct {
	mu     sync.Mutex
	state  int
	denier component.Guard
}

func (g *guardGate) decision() (int, component.Guard) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.denier
}

func (g *guardGate) allow() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == gateEvaluating {
		g.state = gateAllowed
	}
}

func (g *guardGate) deny(denier component.Guard) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == gateEvaluating {
		g.state = gateDenied
		g.denier = denier
	}
}

// denial carries the denying guard out of the evaluation group.
type denial struct {
	guard component.Guard
}

func (d *denial) Error() string { return "guard denied activation" }

// Guards installs the access gate for components that declare guards. All
// guards evaluate concurrently; the first one to produce a false result,
// in completion order, decides denial and its fallback replaces the
// component's output. While evaluation is pending the component renders a
// placeholder, so a guarded component's real render never runs before every
// guard has said yes.
func Guards() lifecycle.Plugin {
	return lifecycle.Plugin{
		ID:       "guards",
		Phase:    component.Created,
		Priority: 3,
		Execute: func(c *component.Component) *observe.Task {
			specs := c.Descriptor().Guards
			if len(specs) == 0 {
				return nil
			}

			guards := make([]component.Guard, 0, len(specs))
			for _, spec := range specs {
				g, err := guardInstance(c, spec)
				if err != nil {
					reportGuardError(c, err)
					continue
				}
				guards = append(guards, g)
			}

			gate := &guardGate{}
			c.AddInterceptor(3, func(next component.RenderFunc) component.RenderFunc {
				return func(c *component.Component) any {
					switch state, denier := gate.decision(); state {
					case gateAllowed:
						return next(c)
					case gateDenied:
						// No denier when every guard failed to construct.
						if denier == nil {
							return component.PlaceholderNode("")
						}
						return denier.Fallback(c)
					default:
						return component.PlaceholderNode("")
					}
				}
			})

			if len(guards) == 0 {
				// Every declared guard failed to construct: deny outright.
				gate.mu.Lock()
				gate.state = gateDenied
				gate.mu.Unlock()
				return nil
			}

			evaluate(c, gate, guards)
			return nil
		},
	}
}

// guardInstance resolves a guard spec to a live guard, constructing from the
// component's injector when only a token is declared.
func guardInstance(c *component.Component, spec component.GuardSpec) (component.Guard, error) {
	if spec.Guard != nil {
		return spec.Guard, nil
	}
	in := c.Injector()
	if in == nil {
		return nil, fmt.Errorf("plugins: no injector to construct guard %q on %s", spec.Token, c.ContextID())
	}
	v, err := in.Construct(spec.Token, c)
	if err != nil {
		return nil, err
	}
	g, ok := v.(component.Guard)
	if !ok {
		return nil, fmt.Errorf("plugins: token %q resolved to %T, not a guard", spec.Token, v)
	}
	return g, nil
}

// evaluate runs every guard concurrently. A guard whose result settles false
// or with an error aborts the remaining waits; guard errors count as denial
// by the erroring guard.
func evaluate(c *component.Component, gate *guardGate, guards []component.Guard) {
	group, ctx := errgroup.WithContext(context.Background())
	unmount := c.Unmount()

	for _, g := range guards {
		guard := g
		group.Go(func() error {
			allowed, err := awaitGuard(ctx, unmount, c, guard)
			if err != nil {
				reportGuardError(c, err)
				return &denial{guard: guard}
			}
			if !allowed {
				return &denial{guard: guard}
			}
			return nil
		})
	}

	go func() {
		err := group.Wait()
		if unmount.Fired() {
			return
		}
		if err == nil {
			gate.allow()
		} else if d, ok := err.(*denial); ok {
			gate.deny(d.guard)
		}
		c.Invalidate()
	}()
}

// awaitGuard evaluates one guard and normalizes the result to a boolean. A
// guard may answer synchronously with a bool, or asynchronously with a task
// or a stream whose first emission decides.
func awaitGuard(ctx context.Context, unmount *observe.Signal, c *component.Component, g component.Guard) (allowed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			allowed = false
			err = &errors.RecoveredValue{Value: r}
		}
	}()

	v := g.CanActivate(c)
	if b, ok := v.(bool); ok {
		return b, nil
	}
	task, ok := asTask(v)
	if !ok {
		return false, fmt.Errorf("plugins: guard %T answered %T, want bool, task, or stream", g, v)
	}

	select {
	case <-task.Done():
	case <-ctx.Done():
		return false, nil
	case <-unmount.Done():
		return false, nil
	}

	result, terr := task.Result()
	if terr != nil {
		return false, terr
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("plugins: guard %T settled with %T, want bool", g, result)
	}
	return b, nil
}

func reportGuardError(c *component.Component, err error) {
	rerr := &errors.RuntimeError{
		Op:        "plugins.Guards",
		Kind:      errors.KindGuard,
		Err:       err,
		Component: c.ID(),
		Timestamp: time.Now(),
	}
	errors.Report(rerr)
	c.ReportError(rerr)
}
