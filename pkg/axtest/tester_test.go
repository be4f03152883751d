package axtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/di"
	"github.com/nextcore/axon/pkg/observe"
)

type allowGuard struct{ answer bool }

func (g allowGuard) CanActivate(*component.Component) any { return g.answer }

func (g allowGuard) Fallback(*component.Component) component.Node {
	return component.TextNode("access denied")
}

type listResolver struct{ task *observe.Task }

func (r listResolver) Resolve(*component.Component) any { return r.task }

func TestFullLifecycleThroughTester(t *testing.T) {
	QuietErrors(t)
	tester := NewComponentTesterWithT(t)

	data := observe.NewTask()
	events := observe.NewSubject[any]()
	var watched []any

	root, err := tester.Mount(&component.Descriptor{
		Name: "dashboard",
		Providers: []di.Provider{
			di.ValueProvider{Provide: "title", Value: "Dashboard"},
		},
		Guards: []component.GuardSpec{{Guard: allowGuard{answer: true}}},
		Resolvers: []component.ResolverSpec{
			{Token: "entries", Resolver: listResolver{task: data}},
		},
		Watches: []component.Watch{{
			Source:  func(*component.Component) *observe.Subject[any] { return events },
			Handler: func(_ *component.Component, v any) { watched = append(watched, v) },
		}},
		Render: func(c *component.Component) any {
			title, _ := c.Resolve("title")
			return component.TextNode(title.(string))
		},
		RenderLoading: func(*component.Component) any { return component.TextNode("loading…") },
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, component.AfterMount, root.Phase())

	require.NoError(t, tester.Settle(2*time.Second))
	out, ok := tester.Output()
	require.True(t, ok)
	assert.Equal(t, "loading…", out.Text, "resolver in flight renders the loading method")

	data.Complete([]string{"a", "b"})
	require.NoError(t, tester.Settle(2*time.Second))

	out, _ = tester.Output()
	assert.Equal(t, "Dashboard", out.Text)
	assert.Equal(t,
		[]component.StatePhase{component.StateLoading, component.StateSuccess},
		tester.StatePhases())

	entries, ok := root.Instance("entries")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, entries)

	events.Next("tick")
	assert.Equal(t, []any{"tick"}, watched)

	tester.App().NotifyRemoved(root)
	assert.True(t, root.Destroyed())
	events.Next("late")
	assert.Len(t, watched, 1, "watches end at unmount")
}

func TestDeniedMountThroughTester(t *testing.T) {
	QuietErrors(t)
	tester := NewComponentTesterWithT(t)

	_, err := tester.Mount(&component.Descriptor{
		Name:   "secret",
		Guards: []component.GuardSpec{{Guard: allowGuard{answer: false}}},
		Render: func(*component.Component) any { return component.TextNode("secret") },
	}, nil)
	require.NoError(t, err)

	require.NoError(t, tester.Settle(2*time.Second))
	out, ok := tester.Output()
	require.True(t, ok)
	assert.Equal(t, "access denied", out.Text)
}

func TestRemountReplacesTree(t *testing.T) {
	tester := NewComponentTesterWithT(t)

	first, err := tester.Mount(&component.Descriptor{
		Name:   "first",
		Render: func(*component.Component) any { return component.TextNode("first") },
	}, nil)
	require.NoError(t, err)

	second, err := tester.Mount(&component.Descriptor{
		Name:   "second",
		Render: func(*component.Component) any { return component.TextNode("second") },
	}, nil)
	require.NoError(t, err)

	assert.True(t, first.Destroyed(), "remount destroys the previous tree")
	assert.False(t, second.Destroyed())
	out, _ := tester.Output()
	assert.Equal(t, "second", out.Text)
}
