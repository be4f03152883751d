package component

import (
	"time"

	"github.com/nextcore/axon/pkg/di"
	"github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/observe"
)

// Destroy tears the component down. The sequence is fixed: children are
// destroyed bottom-up first, BeforeDestroy is emitted, the unmount signal
// fires so every scoped subscription detaches, cleanups run in registration
// order, DI caches are cleared, the terminal phase is emitted, and the
// component's streams complete. Destroy is idempotent.
//
// Destroy is synchronous, so BeforeDestroy plugin work must be too: the
// unmount signal fires immediately after the phase emission, and any plugin
// task still pending at that point is dropped by the lifecycle manager.
// Asynchronous teardown belongs in cleanups, which always run.
func (c *Component) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	unmount := c.unmount
	phases := c.phases
	states := c.states
	output := c.output
	errs := c.errs
	c.mu.Unlock()

	for _, child := range c.Children() {
		child.Destroy()
	}

	if c.Phase() < BeforeDestroy {
		_ = c.AdvanceTo(BeforeDestroy)
	}

	unmount.Fire()

	c.mu.Lock()
	cleanups := c.cleanups
	c.cleanups = nil
	c.mu.Unlock()
	for _, fn := range cleanups {
		if fn == nil {
			continue
		}
		c.runCleanup(fn)
	}

	c.mu.Lock()
	c.providers = make(map[di.Token]di.Provider)
	c.instances = make(map[di.Token]any)
	c.scoped = make(map[di.Token]any)
	c.mu.Unlock()

	if c.Phase() < Destroyed {
		_ = c.AdvanceTo(Destroyed)
	}

	if p := c.Parent(); p != nil {
		p.removeChild(c)
	}

	phases.Complete()
	states.Complete()
	output.Complete()
	errs.Complete()
	c.mu.Lock()
	fragments := c.fragments
	c.fragments = make(map[string]*observe.Subject[Node])
	c.mu.Unlock()
	for _, f := range fragments {
		f.Complete()
	}
}

// runCleanup isolates one cleanup callback so a panicking callback never
// prevents later callbacks from running.
func (c *Component) runCleanup(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			errors.Report(&errors.RuntimeError{
				Op:         "component.Destroy",
				Kind:       errors.KindCleanup,
				Err:        &errors.RecoveredValue{Value: r},
				Component:  c.id,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
		}
	}()
	fn()
}

// Reattach moves a surviving component instance under a new parent.
// Reattaching under the same parent is a no-op. Under a different parent the
// instance resets as if newly created: the old unmount signal fires so stale
// subscriptions detach, lifecycle and render streams are replaced, the DI
// caches and interceptor chain are cleared, and the phase returns to Created
// so the lifecycle runs again in the new position.
func (c *Component) Reattach(parent *Component) error {
	if c.Parent() == parent {
		return nil
	}

	if old := c.Parent(); old != nil {
		old.removeChild(c)
	}
	c.unmount.Fire()

	c.mu.Lock()
	c.parent = nil
	c.phase = Created
	c.current = RenderState{}
	c.destroyed = false
	c.providers = make(map[di.Token]di.Provider)
	c.instances = make(map[di.Token]any)
	c.scoped = make(map[di.Token]any)
	c.cleanups = nil
	c.interceptors = nil
	c.render = c.base
	c.phases = observe.NewSubject[Phase]()
	c.states = observe.NewSubject[RenderState]()
	c.output = observe.NewSubject[Node]()
	c.errs = observe.NewSubject[error]()
	c.fragments = make(map[string]*observe.Subject[Node])
	c.unmount = observe.NewSignal()
	c.mu.Unlock()

	if parent == nil {
		return nil
	}
	return parent.AddChild(c)
}
