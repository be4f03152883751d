package plugins

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/di"
	axerrors "github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/observe"
)

func quietLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Level: hclog.Off})
}

// newHost inflates a component through the standard plugin suite the way the
// app layer does.
func newHost(t *testing.T, registry *di.Registry, desc *component.Descriptor) *component.Component {
	t.Helper()
	if registry == nil {
		registry = di.NewRegistry()
	}
	set := lifecycle.NewPluginSet(quietLogger())
	RegisterStandard(set, quietLogger())

	m := lifecycle.NewManager(set, quietLogger())
	c := component.New(desc, nil)
	c.SetInjector(di.NewInjector(registry))
	m.Attach(c)
	done := m.RunCreated(c)
	require.True(t, done.Settled(), "created phase should settle synchronously in tests")
	return c
}

// eventually polls a condition; guard evaluation crosses goroutines.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestUseProvidersRegistersDeclaredProviders(t *testing.T) {
	c := newHost(t, nil, &component.Descriptor{
		Providers: []di.Provider{
			di.ValueProvider{Provide: "greeting", Value: "hello"},
		},
		Render: func(*component.Component) any { return component.Node{} },
	})

	v, err := c.Resolve("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

// stubGuard answers CanActivate with a fixed value and renders a
// recognizable fallback.
type stubGuard struct {
	answer   any
	fallback string
}

func (g *stubGuard) CanActivate(*component.Component) any { return g.answer }

func (g *stubGuard) Fallback(*component.Component) component.Node {
	return component.TextNode(g.fallback)
}

func TestGuardAllowsWhenAllSayYes(t *testing.T) {
	c := newHost(t, nil, &component.Descriptor{
		Guards: []component.GuardSpec{
			{Guard: &stubGuard{answer: true}},
			{Guard: &stubGuard{answer: true}},
		},
		Render: func(*component.Component) any { return component.TextNode("real") },
	})

	eventually(t, func() bool {
		n, ok := c.Output().Value()
		return ok && n.Text == "real"
	}, "expected the real render once every guard allowed")
}

func TestGuardDenialWinsOverSlowerApproval(t *testing.T) {
	slow := observe.NewTask()
	slowGuard := &stubGuard{answer: slow, fallback: "slow-fallback"}
	denier := &stubGuard{answer: false, fallback: "denied"}

	c := newHost(t, nil, &component.Descriptor{
		Guards: []component.GuardSpec{
			{Guard: slowGuard},
			{Guard: denier},
		},
		Render: func(*component.Component) any { return component.TextNode("real") },
	})

	eventually(t, func() bool {
		n, ok := c.Output().Value()
		return ok && n.Text == "denied"
	}, "expected the immediate denier's fallback")

	// A late approval must not flip the decision.
	slow.Complete(true)
	time.Sleep(5 * time.Millisecond)
	n, _ := c.Output().Value()
	assert.Equal(t, "denied", n.Text, "denial is final once decided")
}

func TestGuardRendersPlaceholderWhileEvaluating(t *testing.T) {
	pending := observe.NewTask()
	c := newHost(t, nil, &component.Descriptor{
		Guards: []component.GuardSpec{
			{Guard: &stubGuard{answer: pending, fallback: "denied"}},
		},
		Render: func(*component.Component) any { return component.TextNode("real") },
	})

	c.Invalidate()
	n, ok := c.Output().Value()
	require.True(t, ok)
	assert.Equal(t, component.NodePlaceholder, n.Kind, "undecided guard gates the real render")

	pending.Complete(true)
	eventually(t, func() bool {
		n, ok := c.Output().Value()
		return ok && n.Text == "real"
	}, "expected the real render after approval")
}

func TestGuardErrorCountsAsDenial(t *testing.T) {
	axerrors.SetHandler(&nullHandler{})
	defer axerrors.SetHandler(nil)

	c := newHost(t, nil, &component.Descriptor{
		Guards: []component.GuardSpec{
			{Guard: &stubGuard{answer: observe.FailedTask(assert.AnError), fallback: "error-fallback"}},
		},
		Render: func(*component.Component) any { return component.TextNode("real") },
	})

	eventually(t, func() bool {
		n, ok := c.Output().Value()
		return ok && n.Text == "error-fallback"
	}, "expected an erroring guard to deny with its own fallback")
}

func TestGuardConstructedFromInjector(t *testing.T) {
	registry := di.NewRegistry()
	require.NoError(t, registry.Declare(di.Declaration{
		Token: "auth-guard",
		New:   func([]any) any { return &stubGuard{answer: true} },
	}))

	c := newHost(t, registry, &component.Descriptor{
		Guards: []component.GuardSpec{{Token: "auth-guard"}},
		Render: func(*component.Component) any { return component.TextNode("real") },
	})

	eventually(t, func() bool {
		n, ok := c.Output().Value()
		return ok && n.Text == "real"
	}, "expected a token-declared guard to be constructed and evaluated")
}

func TestGuardConstructionFailureDeniesWithoutFallback(t *testing.T) {
	axerrors.SetHandler(&nullHandler{})
	defer axerrors.SetHandler(nil)

	c := newHost(t, nil, &component.Descriptor{
		Guards: []component.GuardSpec{{Token: "no-such-guard"}},
		Render: func(*component.Component) any { return component.TextNode("real") },
	})

	c.Invalidate()
	n, ok := c.Output().Value()
	require.True(t, ok)
	assert.Equal(t, component.NodePlaceholder, n.Kind,
		"an unconstructible guard denies with a placeholder")

	// Repeated renders stay denied rather than degrading into errors.
	c.Invalidate()
	n, _ = c.Output().Value()
	assert.Equal(t, component.NodePlaceholder, n.Kind)
	assert.NotEqual(t, component.StateError, c.CurrentRenderState().Phase)
}

// stubResolver returns a fixed result; emptySlices makes it classify empty
// slices as empty data.
type stubResolver struct {
	result      any
	emptySlices bool
}

func (r *stubResolver) Resolve(*component.Component) any { return r.result }

func (r *stubResolver) IsEmpty(data any) bool {
	if !r.emptySlices {
		return data == nil
	}
	s, ok := data.([]any)
	return !ok || len(s) == 0
}

func TestResolverPublishesPlaceholderThenData(t *testing.T) {
	pending := observe.NewTask()
	c := newHost(t, nil, &component.Descriptor{
		Resolvers: []component.ResolverSpec{
			{Token: "users", Resolver: &stubResolver{result: pending}},
		},
		Render: func(*component.Component) any { return component.Node{} },
	})

	v, ok := c.Instance("users")
	require.True(t, ok, "token must be present during loading")
	assert.Nil(t, v, "placeholder is nil until data arrives")
	assert.Equal(t, component.StateLoading, c.CurrentRenderState().Phase)

	pending.Complete([]string{"ada"})

	v, _ = c.Instance("users")
	assert.Equal(t, []string{"ada"}, v, "resolved data replaces the placeholder")
	assert.Equal(t, component.StateSuccess, c.CurrentRenderState().Phase)
}

func TestResolverRejectionEmitsExactlyLoadingThenError(t *testing.T) {
	axerrors.SetHandler(&nullHandler{})
	defer axerrors.SetHandler(nil)

	pending := observe.NewTask()
	var states []component.StatePhase
	desc := &component.Descriptor{
		Resolvers: []component.ResolverSpec{
			{Token: "doomed", Resolver: &stubResolver{result: pending}},
		},
		Render: func(*component.Component) any { return component.Node{} },
	}

	registry := di.NewRegistry()
	set := lifecycle.NewPluginSet(quietLogger())
	RegisterStandard(set, quietLogger())
	m := lifecycle.NewManager(set, quietLogger())
	c := component.New(desc, nil)
	c.SetInjector(di.NewInjector(registry))
	c.RenderStates().Subscribe(func(s component.RenderState) { states = append(states, s.Phase) })
	m.Attach(c)
	m.RunCreated(c)

	pending.Fail(assert.AnError)

	require.Equal(t, []component.StatePhase{component.StateLoading, component.StateError}, states)
}

func TestResolverEmptyClassification(t *testing.T) {
	c := newHost(t, nil, &component.Descriptor{
		Resolvers: []component.ResolverSpec{
			{Token: "rows", Resolver: &stubResolver{result: []any{}, emptySlices: true}},
		},
		Render: func(*component.Component) any { return component.Node{} },
	})
	assert.Equal(t, component.StateEmpty, c.CurrentRenderState().Phase)

	c2 := newHost(t, nil, &component.Descriptor{
		Resolvers: []component.ResolverSpec{
			{Token: "rows", Resolver: &stubResolver{result: []any{map[string]any{"id": 1}}, emptySlices: true}},
		},
		Render: func(*component.Component) any { return component.Node{} },
	})
	assert.Equal(t, component.StateSuccess, c2.CurrentRenderState().Phase)
}

func TestResolverAggregateErrorBeatsSuccess(t *testing.T) {
	axerrors.SetHandler(&nullHandler{})
	defer axerrors.SetHandler(nil)

	c := newHost(t, nil, &component.Descriptor{
		Resolvers: []component.ResolverSpec{
			{Token: "fine", Resolver: &stubResolver{result: "data"}},
			{Token: "broken", Resolver: &stubResolver{result: observe.FailedTask(assert.AnError)}},
		},
		Render: func(*component.Component) any { return component.Node{} },
	})

	state := c.CurrentRenderState()
	assert.Equal(t, component.StateError, state.Phase, "any failure makes the aggregate an error")
	assert.Error(t, state.Err)
}

func TestResolverMixedEmptyAndDataIsSuccess(t *testing.T) {
	c := newHost(t, nil, &component.Descriptor{
		Resolvers: []component.ResolverSpec{
			{Token: "rows", Resolver: &stubResolver{result: []any{}, emptySlices: true}},
			{Token: "owner", Resolver: &stubResolver{result: "alice"}},
		},
		Render: func(*component.Component) any { return component.Node{} },
	})

	state := c.CurrentRenderState()
	require.Equal(t, component.StateSuccess, state.Phase,
		"a single non-empty resolver makes the aggregate a success")
	data, ok := state.Data.([]ResolvedData)
	require.True(t, ok)
	require.Len(t, data, 2)
	assert.Equal(t, di.Token("rows"), data[0].Token)
	assert.Equal(t, "alice", data[1].Data)
}

func TestLabeledResolverDrivesFragment(t *testing.T) {
	pending := observe.NewTask()
	c := newHost(t, nil, &component.Descriptor{
		Resolvers: []component.ResolverSpec{
			{Token: "sidebar-data", Resolver: &stubResolver{result: pending}, Label: "sidebar"},
		},
		Render:        func(*component.Component) any { return component.TextNode("main") },
		RenderLoading: func(*component.Component) any { return component.TextNode("sidebar-loading") },
	})

	var fragments []component.Node
	c.Fragment("sidebar").Subscribe(func(n component.Node) { fragments = append(fragments, n) })

	require.NotEmpty(t, fragments, "labeled loading renders into the fragment stream")
	assert.Equal(t, "sidebar-loading", fragments[0].Text)
	assert.NotEqual(t, component.StateLoading, c.CurrentRenderState().Phase,
		"labeled resolvers do not drive the whole-component state")

	pending.Complete("items")
	assert.Equal(t, "main", fragments[len(fragments)-1].Text,
		"labeled success falls back to the main render for the fragment body")
}

func TestStatefulSelectsLoadingRender(t *testing.T) {
	c := newHost(t, nil, &component.Descriptor{
		Render:        func(*component.Component) any { return component.TextNode("real") },
		RenderLoading: func(*component.Component) any { return component.TextNode("spinner") },
	})

	c.SetRenderState(component.RenderState{Phase: component.StateLoading})
	n, _ := c.Output().Value()
	assert.Equal(t, "spinner", n.Text)

	c.SetRenderState(component.RenderState{Phase: component.StateSuccess})
	n, _ = c.Output().Value()
	assert.Equal(t, "real", n.Text)
}

func TestStatefulFallsBackToRenderWhenMethodMissing(t *testing.T) {
	calls := 0
	c := newHost(t, nil, &component.Descriptor{
		Render: func(*component.Component) any {
			calls++
			return component.TextNode("real")
		},
	})

	c.SetRenderState(component.RenderState{Phase: component.StateEmpty})
	n, _ := c.Output().Value()
	assert.Equal(t, "real", n.Text, "missing renderEmpty falls back to render")
	assert.Positive(t, calls)
}

func TestStatefulFallbackRunsRenderOnceAcrossStates(t *testing.T) {
	calls := 0
	c := newHost(t, nil, &component.Descriptor{
		Render: func(*component.Component) any {
			calls++
			return component.TextNode("real")
		},
	})

	c.SetRenderState(component.RenderState{Phase: component.StateLoading})
	c.SetRenderState(component.RenderState{Phase: component.StateEmpty})

	n, _ := c.Output().Value()
	assert.Equal(t, "real", n.Text)
	assert.Equal(t, 1, calls,
		"a second method-less transition reuses the first fallback's output")
}

func TestStatefulAsyncRenderImplicitStates(t *testing.T) {
	pending := observe.NewTask()
	var states []component.StatePhase

	c := newHost(t, nil, &component.Descriptor{
		Render:        func(*component.Component) any { return pending },
		RenderLoading: func(*component.Component) any { return component.TextNode("spinner") },
	})
	c.RenderStates().Subscribe(func(s component.RenderState) { states = append(states, s.Phase) })

	c.Invalidate()
	assert.Equal(t, []component.StatePhase{component.StateLoading}, states,
		"a task-returning render implies a loading transition")
	n, _ := c.Output().Value()
	assert.Equal(t, "spinner", n.Text)

	pending.Complete(component.TextNode("arrived"))
	assert.Equal(t, []component.StatePhase{component.StateLoading, component.StateSuccess}, states)
	n, _ = c.Output().Value()
	assert.Equal(t, "arrived", n.Text)
}

func TestWatchersWireBeforeMountHook(t *testing.T) {
	subject := observe.NewSubject[any]()
	var seen []any

	set := lifecycle.NewPluginSet(quietLogger())
	RegisterStandard(set, quietLogger())
	m := lifecycle.NewManager(set, quietLogger())

	c := component.New(&component.Descriptor{
		Watches: []component.Watch{{
			Source:  func(*component.Component) *observe.Subject[any] { return subject },
			Handler: func(_ *component.Component, v any) { seen = append(seen, v) },
		}},
		OnMount: func(*component.Component) {
			// The watch must already be live when the mount hook pushes.
			subject.Next("from-mount")
		},
		Render: func(*component.Component) any { return component.Node{} },
	}, nil)
	c.SetInjector(di.NewInjector(di.NewRegistry()))
	m.Attach(c)
	m.RunCreated(c)

	require.NoError(t, c.AdvanceTo(component.Mounted))
	assert.Equal(t, []any{"from-mount"}, seen)

	c.Destroy()
	subject.Next("after-destroy")
	assert.Len(t, seen, 1, "watch subscriptions end at unmount")
}

type nullHandler struct{}

func (nullHandler) HandleError(*axerrors.RuntimeError)      {}
func (nullHandler) HandlePluginError(*axerrors.PluginError) {}
