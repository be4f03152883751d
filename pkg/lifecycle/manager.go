package lifecycle

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/observe"
)

// Manager drives components through their lifecycle phases by executing the
// registered plugins for each phase the component reaches.
//
// Per component, phase work is strictly serialized: the plugins for phase N,
// including any tasks they return, settle before phase N+1's plugins start,
// even when N+1 was emitted while N was still in flight. Once a component's
// unmount signal fires, queued and in-flight work for it is discarded.
type Manager struct {
	set    *PluginSet
	logger hclog.Logger

	mu     sync.Mutex
	drives map[string]*drive
}

// drive is the per-component phase work queue.
type drive struct {
	mu      sync.Mutex
	queue   []phaseWork
	busy    bool
	stopped bool
}

type phaseWork struct {
	phase component.Phase
	done  *observe.Task
}

// NewManager creates a Manager executing plugins from set. A nil logger
// falls back to the hclog default.
func NewManager(set *PluginSet, logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.Default()
	}
	return &Manager{
		set:    set,
		logger: logger.Named("lifecycle"),
		drives: make(map[string]*drive),
	}
}

// Attach wires the manager to a component: every phase the component emits
// from here on is driven through the plugin set. The wiring is scoped to the
// component's unmount signal.
func (m *Manager) Attach(c *component.Component) {
	d := &drive{}
	m.mu.Lock()
	m.drives[c.ID()] = d
	m.mu.Unlock()

	unmount := c.Unmount()
	c.Phases().SubscribeUntil(unmount, func(phase component.Phase) {
		m.enqueue(c, d, phase)
	})
	unmount.OnFire(func() {
		d.mu.Lock()
		d.stopped = true
		d.queue = nil
		d.mu.Unlock()
		m.mu.Lock()
		delete(m.drives, c.ID())
		m.mu.Unlock()
	})
}

// RunCreated executes the Created-phase plugins for a freshly attached
// component, then resolves the component's render interceptor chain. The
// returned task settles once every Created plugin has settled; when all of
// them finish synchronously it is settled on return.
func (m *Manager) RunCreated(c *component.Component) *observe.Task {
	d := m.driveFor(c)
	if d == nil {
		return observe.CompletedTask(nil)
	}
	done := m.enqueue(c, d, component.Created)
	done.Then(func(any, error) {
		if !c.Unmount().Fired() {
			c.BuildRenderChain()
		}
	})
	return done
}

func (m *Manager) driveFor(c *component.Component) *drive {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drives[c.ID()]
}

// enqueue schedules one phase's plugin run on the component's drive. The
// returned task settles when the phase's plugins have all settled, or
// immediately if the drive has stopped.
func (m *Manager) enqueue(c *component.Component, d *drive, phase component.Phase) *observe.Task {
	done := observe.NewTask()
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		done.Complete(nil)
		return done
	}
	d.queue = append(d.queue, phaseWork{phase: phase, done: done})
	if d.busy {
		d.mu.Unlock()
		return done
	}
	d.busy = true
	d.mu.Unlock()

	m.pump(c, d)
	return done
}

// pump takes the next queued phase and runs its plugins. Called with the
// drive marked busy; busy clears only when the queue empties or the drive
// stops.
func (m *Manager) pump(c *component.Component, d *drive) {
	d.mu.Lock()
	if d.stopped || len(d.queue) == 0 {
		d.busy = false
		d.mu.Unlock()
		return
	}
	w := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()

	m.runFrom(c, d, w, m.set.ForPhase(w.phase), 0)
}

// runFrom executes plugins[i:] for one phase. A plugin returning an
// unsettled task suspends the sequence; the task's settlement resumes it.
func (m *Manager) runFrom(c *component.Component, d *drive, w phaseWork, plugins []Plugin, i int) {
	for i < len(plugins) {
		if c.Unmount().Fired() {
			break
		}
		p := plugins[i]
		task := m.exec(c, p)
		if task == nil {
			i++
			continue
		}
		if !task.Settled() {
			next := i + 1
			task.Then(func(_ any, err error) {
				if err != nil {
					m.reportTaskError(c, p, err)
				}
				m.runFrom(c, d, w, plugins, next)
			})
			return
		}
		if _, err := task.Result(); err != nil {
			m.reportTaskError(c, p, err)
		}
		i++
	}
	w.done.Complete(nil)
	m.pump(c, d)
}

// exec invokes one plugin with panic isolation. A panicking plugin is
// reported and treated as finished; siblings and later phases still run.
func (m *Manager) exec(c *component.Component, p Plugin) (task *observe.Task) {
	defer func() {
		if r := recover(); r != nil {
			perr := &errors.PluginError{
				Plugin:     p.ID,
				Phase:      p.Phase.String(),
				Recovered:  r,
				Component:  c.ID(),
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			errors.ReportPlugin(perr)
			c.ReportError(perr)
			m.logger.Error("plugin panicked",
				"plugin", p.ID, "phase", p.Phase.String(), "component", c.ContextID())
			task = nil
		}
	}()
	return p.Execute(c)
}

func (m *Manager) reportTaskError(c *component.Component, p Plugin, err error) {
	perr := &errors.PluginError{
		Plugin:    p.ID,
		Phase:     p.Phase.String(),
		Err:       err,
		Component: c.ID(),
		Timestamp: time.Now(),
	}
	errors.ReportPlugin(perr)
	c.ReportError(perr)
	m.logger.Error("plugin task failed",
		"plugin", p.ID, "phase", p.Phase.String(), "component", c.ContextID(), "error", err)
}
