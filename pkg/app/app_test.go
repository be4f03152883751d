package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/di"
	axerrors "github.com/nextcore/axon/pkg/errors"
)

func testOptions() Options {
	return Options{Name: "test", LogLevel: "off"}
}

// recordingRenderer collects every node handed to the renderer.
type recordingRenderer struct {
	rendered []component.Node
}

func (r *recordingRenderer) Render(_ *component.Component, n component.Node) {
	r.rendered = append(r.rendered, n)
}

func TestValidationFailureBlocksMount(t *testing.T) {
	a := New(testOptions(), &recordingRenderer{})
	require.NoError(t, a.Registry().Declare(di.Declaration{
		Token: "a",
		Deps:  []di.Token{"b"},
		New:   func([]any) any { return nil },
	}))
	require.NoError(t, a.Registry().Declare(di.Declaration{
		Token: "b",
		Deps:  []di.Token{"a"},
		New:   func([]any) any { return nil },
	}))

	_, err := a.Mount(&component.Descriptor{Name: "root"}, nil)
	require.Error(t, err)

	var verr *axerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Cycles, 1)
	assert.Nil(t, a.Root(), "nothing mounts on an invalid graph")
}

func TestMountFlow(t *testing.T) {
	r := &recordingRenderer{}
	a := New(testOptions(), r)

	mounted := false
	root, err := a.Mount(&component.Descriptor{
		Name:    "root",
		OnMount: func(*component.Component) { mounted = true },
		Render:  func(*component.Component) any { return component.TextNode("root-output") },
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Same(t, root, a.Root())
	assert.Equal(t, component.BeforeMount, root.Phase())

	require.NotEmpty(t, r.rendered, "initial invalidate reaches the renderer")
	assert.Equal(t, "root-output", r.rendered[len(r.rendered)-1].Text)

	require.NoError(t, a.NotifyMounted(root))
	assert.True(t, mounted, "the mount hook runs during the Mounted phase")
	assert.Equal(t, component.AfterMount, root.Phase())
}

func TestMountTwiceFails(t *testing.T) {
	a := New(testOptions(), &recordingRenderer{})
	_, err := a.Mount(&component.Descriptor{Name: "root"}, nil)
	require.NoError(t, err)
	_, err = a.Mount(&component.Descriptor{Name: "again"}, nil)
	assert.Error(t, err)
}

func TestInflateChildUnderParent(t *testing.T) {
	a := New(testOptions(), &recordingRenderer{})
	root, err := a.Mount(&component.Descriptor{Name: "root"}, nil)
	require.NoError(t, err)

	child, err := a.Inflate(&component.Descriptor{Name: "child"}, component.Props{"k": "v"}, root)
	require.NoError(t, err)
	assert.Same(t, root, child.Parent())
	assert.Equal(t, 1, child.Depth())

	a.NotifyRemoved(root)
	assert.True(t, child.Destroyed(), "removing the parent destroys the subtree")
	assert.Nil(t, a.Root())
}

func TestWorkQueueDedupesAndFlushesInDepthOrder(t *testing.T) {
	q := NewWorkQueue()

	var order []string
	parent := component.New(&component.Descriptor{
		Render: func(*component.Component) any {
			order = append(order, "parent")
			return component.Node{}
		},
	}, nil)
	child := component.New(&component.Descriptor{
		Render: func(*component.Component) any {
			order = append(order, "child")
			return component.Node{}
		},
	}, nil)
	require.NoError(t, parent.AddChild(child))

	notified := 0
	q.OnNeedsWork = func() { notified++ }

	q.Schedule(child)
	q.Schedule(parent)
	q.Schedule(child) // duplicate
	assert.Equal(t, 2, notified, "re-scheduling a dirty component is silent")

	q.Flush()
	assert.Equal(t, []string{"parent", "child"}, order, "parents flush before children")
	assert.False(t, q.NeedsWork())
}

func TestWorkQueueSkipsDestroyedComponents(t *testing.T) {
	q := NewWorkQueue()
	ran := false
	c := component.New(&component.Descriptor{
		Render: func(*component.Component) any {
			ran = true
			return component.Node{}
		},
	}, nil)

	q.Schedule(c)
	c.Destroy()
	q.Flush()

	assert.False(t, ran, "destroyed components are dropped at flush")
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: demo\ndevelopment: true\nlog_level: debug\n"), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", opts.Name)
	assert.True(t, opts.Development)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestLoadOptionsFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("development: true\n"), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "axon", opts.Name)
	assert.Equal(t, "info", opts.LogLevel)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
