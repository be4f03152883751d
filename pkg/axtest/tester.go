// Package axtest provides isolated component testing without a real host.
// A ComponentTester drives the same lifecycle phases as a live application
// but records output and errors instead of attaching anywhere.
package axtest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/nextcore/axon/pkg/app"
	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/di"
	axerrors "github.com/nextcore/axon/pkg/errors"
)

// ErrSettleTimeout is returned when Settle exceeds its timeout.
var ErrSettleTimeout = errors.New("Settle timed out: component output did not stabilize")

// ComponentTester mounts component descriptors through the standard plugin
// suite and records everything they produce.
type ComponentTester struct {
	app  *app.App
	root *component.Component

	mu     sync.Mutex
	nodes  []component.Node
	states []component.RenderState
	errs   []error
}

// NewComponentTester creates a tester with a quiet logger and an empty
// registry. Call Cleanup when done, or use NewComponentTesterWithT.
func NewComponentTester() *ComponentTester {
	t := &ComponentTester{}
	t.app = app.New(app.Options{Name: "axtest", LogLevel: hclog.Off.String()}, app.RendererFunc(t.record))
	return t
}

// NewComponentTesterWithT creates a tester that auto-cleans up via
// t.Cleanup. This is the recommended constructor for tests.
func NewComponentTesterWithT(t *testing.T) *ComponentTester {
	tester := NewComponentTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup destroys the mounted tree.
func (t *ComponentTester) Cleanup() {
	t.app.Shutdown()
	t.root = nil
}

// Registry returns the injectable registry for declarations. Declare before
// the first Mount.
func (t *ComponentTester) Registry() *di.Registry { return t.app.Registry() }

// App returns the underlying app for direct access.
func (t *ComponentTester) App() *app.App { return t.app }

// Mount mounts (or remounts) a descriptor, drives it through the Mounted
// and AfterMount phases, and starts recording its output.
func (t *ComponentTester) Mount(desc *component.Descriptor, props component.Props) (*component.Component, error) {
	if t.root != nil {
		t.app.NotifyRemoved(t.root)
		t.root = nil
	}
	t.mu.Lock()
	t.nodes = nil
	t.states = nil
	t.errs = nil
	t.mu.Unlock()

	c, err := t.app.Mount(desc, props)
	if err != nil {
		return nil, err
	}
	t.root = c
	c.RenderStates().SubscribeUntil(c.Unmount(), func(s component.RenderState) {
		t.mu.Lock()
		t.states = append(t.states, s)
		t.mu.Unlock()
	})
	c.Errors().SubscribeUntil(c.Unmount(), func(err error) {
		t.mu.Lock()
		t.errs = append(t.errs, err)
		t.mu.Unlock()
	})

	if err := t.app.NotifyMounted(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Root returns the mounted root component.
func (t *ComponentTester) Root() *component.Component { return t.root }

// Pump flushes scheduled re-renders once.
func (t *ComponentTester) Pump() {
	t.app.FlushWork()
}

// Settle pumps until the output stops changing or the timeout is reached.
// Guard evaluation crosses goroutines, so tests asserting on gated output
// should settle first.
func (t *ComponentTester) Settle(timeout time.Duration) error {
	const tick = time.Millisecond
	deadline := time.Now().Add(timeout)
	stable := 0
	last := t.outputCount()
	for time.Now().Before(deadline) {
		t.Pump()
		if n := t.outputCount(); n != last {
			last = n
			stable = 0
		} else {
			stable++
		}
		// A few quiet ticks in a row counts as settled.
		if stable >= 5 && !t.app.Queue().NeedsWork() {
			return nil
		}
		time.Sleep(tick)
	}
	return ErrSettleTimeout
}

// Output returns the most recent node the root produced.
func (t *ComponentTester) Output() (component.Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.nodes) == 0 {
		return component.Node{}, false
	}
	return t.nodes[len(t.nodes)-1], true
}

// Outputs returns every node emitted since Mount, in order.
func (t *ComponentTester) Outputs() []component.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]component.Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// StatePhases returns the whole-component state transitions since Mount.
func (t *ComponentTester) StatePhases() []component.StatePhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []component.StatePhase
	for _, s := range t.states {
		if s.Label == "" {
			out = append(out, s.Phase)
		}
	}
	return out
}

// Errors returns the errors surfaced on the root's error channel.
func (t *ComponentTester) Errors() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]error, len(t.errs))
	copy(out, t.errs)
	return out
}

func (t *ComponentTester) outputCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

func (t *ComponentTester) record(_ *component.Component, n component.Node) {
	t.mu.Lock()
	t.nodes = append(t.nodes, n)
	t.mu.Unlock()
}

// QuietErrors routes global error reports into the void for the duration of
// a test and restores the default handler afterwards.
func QuietErrors(t *testing.T) {
	t.Helper()
	axerrors.SetHandler(silentHandler{})
	t.Cleanup(func() { axerrors.SetHandler(nil) })
}

type silentHandler struct{}

func (silentHandler) HandleError(*axerrors.RuntimeError)      {}
func (silentHandler) HandlePluginError(*axerrors.PluginError) {}
