// Package app assembles the runtime: the injectable registry, the lifecycle
// plugin set and manager, the work queue, and the renderer collaborator.
package app

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/di"
	axerrors "github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/plugins"
)

// App owns one component tree and the machinery that drives it.
type App struct {
	opts     Options
	logger   hclog.Logger
	registry *di.Registry
	injector *di.Injector
	plugins  *lifecycle.PluginSet
	manager  *lifecycle.Manager
	queue    *WorkQueue
	renderer Renderer

	mu        sync.Mutex
	root      *component.Component
	validated bool
}

// New creates an App with the standard plugin suite installed. In
// development mode, global error reports route through the app logger.
func New(opts Options, renderer Renderer) *App {
	logger := opts.logger()
	if opts.Development {
		axerrors.SetHandler(axerrors.NewHCLogHandler(logger))
	}
	registry := di.NewRegistry()
	set := lifecycle.NewPluginSet(logger)
	plugins.RegisterStandard(set, logger)

	return &App{
		opts:     opts,
		logger:   logger,
		registry: registry,
		injector: di.NewInjector(registry),
		plugins:  set,
		manager:  lifecycle.NewManager(set, logger),
		queue:    NewWorkQueue(),
		renderer: renderer,
	}
}

// Registry returns the injectable class registry. Declarations must be made
// before Bootstrap.
func (a *App) Registry() *di.Registry { return a.registry }

// Injector returns the app's injector.
func (a *App) Injector() *di.Injector { return a.injector }

// Plugins returns the lifecycle plugin set for application additions.
func (a *App) Plugins() *lifecycle.PluginSet { return a.plugins }

// Queue returns the work queue so hosts can hook OnNeedsWork.
func (a *App) Queue() *WorkQueue { return a.queue }

// Root returns the mounted root component, if any.
func (a *App) Root() *component.Component {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.root
}

// Bootstrap validates the dependency graph. A validation failure is
// returned in full and blocks mounting: nothing mounts on a graph with
// missing registrations or cycles.
func (a *App) Bootstrap() error {
	v := &di.Validator{
		Registry:    a.registry,
		Logger:      a.logger,
		Development: a.opts.Development,
	}
	if err := v.Validate(); err != nil {
		a.logger.Error("dependency graph validation failed", "error", err)
		return err
	}
	a.mu.Lock()
	a.validated = true
	a.mu.Unlock()
	return nil
}

// Mount validates (if not already done), inflates the root component, and
// starts its lifecycle. The host must call NotifyMounted once the root's
// output is attached.
func (a *App) Mount(desc *component.Descriptor, props component.Props) (*component.Component, error) {
	a.mu.Lock()
	validated := a.validated
	hasRoot := a.root != nil
	a.mu.Unlock()

	if !validated {
		if err := a.Bootstrap(); err != nil {
			return nil, err
		}
	}
	if hasRoot {
		return nil, fmt.Errorf("app: root already mounted")
	}

	c, err := a.Inflate(desc, props, nil)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.root = c
	a.mu.Unlock()

	if err := c.AdvanceTo(component.BeforeMount); err != nil {
		return nil, err
	}
	c.Invalidate()
	return c, nil
}

// Inflate creates a component instance, attaches it to the tree, runs its
// Created-phase plugins, and wires its output into the renderer. A nil
// parent inflates a detached (or root) component.
func (a *App) Inflate(desc *component.Descriptor, props component.Props, parent *component.Component) (*component.Component, error) {
	c := component.New(desc, props)
	c.SetInjector(a.injector)
	if parent != nil {
		if err := parent.AddChild(c); err != nil {
			return nil, err
		}
	}

	a.manager.Attach(c)
	a.manager.RunCreated(c)

	c.Output().SubscribeUntil(c.Unmount(), func(node component.Node) {
		if a.renderer != nil {
			a.renderer.Render(c, node)
		}
	})

	a.logger.Debug("inflated component", "component", c.ContextID(), "depth", c.Depth())
	return c, nil
}

// NotifyMounted is called by the host once a component's output is attached.
// It drives the Mounted phase (watch wiring, then the mount hook) and, once
// that settles, AfterMount.
func (a *App) NotifyMounted(c *component.Component) error {
	if err := c.AdvanceTo(component.Mounted); err != nil {
		return err
	}
	// Phase work is serialized per component, so AfterMount plugins run
	// only after every Mounted plugin has settled.
	return c.AdvanceTo(component.AfterMount)
}

// NotifyRemoved is called by the host once a component's output is detached.
// It runs the full destroy sequence.
func (a *App) NotifyRemoved(c *component.Component) {
	a.mu.Lock()
	if a.root == c {
		a.root = nil
	}
	a.mu.Unlock()
	c.Destroy()
}

// Invalidate schedules a component for re-render on the next flush.
func (a *App) Invalidate(c *component.Component) {
	a.queue.Schedule(c)
}

// FlushWork re-renders everything scheduled since the last flush.
func (a *App) FlushWork() {
	a.queue.Flush()
}

// Shutdown destroys the root tree.
func (a *App) Shutdown() {
	a.mu.Lock()
	root := a.root
	a.root = nil
	a.mu.Unlock()
	if root != nil {
		root.Destroy()
	}
}
