package di

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	axerrors "github.com/nextcore/axon/pkg/errors"
)

// fakeContext is a minimal hierarchy node for resolution tests.
type fakeContext struct {
	id        string
	parent    *fakeContext
	providers map[Token]Provider
	instances map[Token]any
	scoped    map[Token]any
}

func newFakeContext(id string, parent *fakeContext) *fakeContext {
	return &fakeContext{
		id:        id,
		parent:    parent,
		providers: make(map[Token]Provider),
		instances: make(map[Token]any),
		scoped:    make(map[Token]any),
	}
}

func (f *fakeContext) ContextID() string { return f.id }

func (f *fakeContext) ParentContext() Context {
	if f.parent == nil {
		return nil
	}
	return f.parent
}

func (f *fakeContext) ProviderFor(token Token) (Provider, bool) {
	p, ok := f.providers[token]
	return p, ok
}

func (f *fakeContext) Instance(token Token) (any, bool) {
	v, ok := f.instances[token]
	return v, ok
}

func (f *fakeContext) SetInstance(token Token, value any) { f.instances[token] = value }

func (f *fakeContext) ScopedInstance(token Token) (any, bool) {
	v, ok := f.scoped[token]
	return v, ok
}

func (f *fakeContext) SetScopedInstance(token Token, value any) { f.scoped[token] = value }

func (f *fakeContext) provide(p Provider) { f.providers[p.Token()] = p }

func TestResolveValueProvider(t *testing.T) {
	in := NewInjector(NewRegistry())
	ctx := newFakeContext("root", nil)
	ctx.provide(ValueProvider{Provide: "config", Value: "prod"})

	v, err := in.Resolve("config", ctx)
	require.NoError(t, err)
	assert.Equal(t, "prod", v)

	// Resolution caches on the providing context.
	cached, ok := ctx.Instance("config")
	require.True(t, ok)
	assert.Equal(t, "prod", cached)
}

func TestResolveWalksParentChain(t *testing.T) {
	in := NewInjector(NewRegistry())
	root := newFakeContext("root", nil)
	mid := newFakeContext("mid", root)
	leaf := newFakeContext("leaf", mid)
	root.provide(ValueProvider{Provide: "svc", Value: 42})

	v, err := in.Resolve("svc", leaf)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestResolveChildOverridesParent(t *testing.T) {
	in := NewInjector(NewRegistry())
	root := newFakeContext("root", nil)
	child := newFakeContext("child", root)
	root.provide(ValueProvider{Provide: "svc", Value: "root"})
	child.provide(ValueProvider{Provide: "svc", Value: "child"})

	v, err := in.Resolve("svc", child)
	require.NoError(t, err)
	assert.Equal(t, "child", v, "nearest provider wins")

	v, err = in.Resolve("svc", root)
	require.NoError(t, err)
	assert.Equal(t, "root", v)
}

func TestResolveMissReturnsResolutionError(t *testing.T) {
	in := NewInjector(NewRegistry())
	ctx := newFakeContext("lonely", nil)

	_, err := in.Resolve("ghost", ctx)
	require.Error(t, err)

	var resErr *axerrors.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "ghost", resErr.Token)
	assert.Equal(t, "lonely", resErr.Requester)
}

func TestResolveClassProviderConstructsDepsDepthFirst(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Declare(Declaration{
		Token: "repo",
		New:   func([]any) any { return "repo-instance" },
	}))
	require.NoError(t, registry.Declare(Declaration{
		Token: "service",
		Deps:  []Token{"repo"},
		New: func(deps []any) any {
			return "service(" + deps[0].(string) + ")"
		},
	}))

	in := NewInjector(registry)
	ctx := newFakeContext("root", nil)
	ctx.provide(ClassProvider{Provide: "service"})
	ctx.provide(ClassProvider{Provide: "repo"})

	v, err := in.Resolve("service", ctx)
	require.NoError(t, err)
	assert.Equal(t, "service(repo-instance)", v, "dependency resolved before constructor returned")
}

func TestResolveFactoryProvider(t *testing.T) {
	in := NewInjector(NewRegistry())
	ctx := newFakeContext("root", nil)
	calls := 0
	ctx.provide(FactoryProvider{
		Provide: "conn",
		Factory: func(Context, *Injector) (any, error) {
			calls++
			return "connection", nil
		},
	})

	v, err := in.Resolve("conn", ctx)
	require.NoError(t, err)
	assert.Equal(t, "connection", v)

	// Second resolve hits the cached instance, not the factory.
	_, err = in.Resolve("conn", ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestResolveFactoryErrorPropagates(t *testing.T) {
	in := NewInjector(NewRegistry())
	ctx := newFakeContext("root", nil)
	boom := errors.New("factory boom")
	ctx.provide(FactoryProvider{
		Provide: "conn",
		Factory: func(Context, *Injector) (any, error) { return nil, boom },
	})

	_, err := in.Resolve("conn", ctx)
	assert.ErrorIs(t, err, boom)
}

func TestExistingProviderResolvesFromOriginalRequester(t *testing.T) {
	in := NewInjector(NewRegistry())
	root := newFakeContext("root", nil)
	mid := newFakeContext("mid", root)
	leaf := newFakeContext("leaf", mid)

	root.provide(ValueProvider{Provide: "logger", Value: "root-logger"})
	mid.provide(ExistingProvider{Provide: "log", Alias: "logger"})
	// The leaf overrides the aliased token below the aliasing context.
	leaf.provide(ValueProvider{Provide: "logger", Value: "leaf-logger"})

	v, err := in.Resolve("log", leaf)
	require.NoError(t, err)
	assert.Equal(t, "leaf-logger", v, "alias re-resolves from the requester, so the leaf override wins")
}

func TestByComponentScopeMemoizesPerRequester(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Declare(Declaration{
		Token: "store",
		Scope: ScopeByComponent,
		New:   func([]any) any { return &struct{ n int }{} },
	}))

	in := NewInjector(registry)
	root := newFakeContext("root", nil)
	a := newFakeContext("a", root)
	b := newFakeContext("b", root)
	root.provide(ClassProvider{Provide: "store"})

	first, err := in.Resolve("store", a)
	require.NoError(t, err)
	second, err := in.Resolve("store", a)
	require.NoError(t, err)
	other, err := in.Resolve("store", b)
	require.NoError(t, err)

	assert.Same(t, first, second, "same requester gets the memoized instance")
	assert.NotSame(t, first, other, "sibling requesters get distinct instances")
}

func TestResolveAs(t *testing.T) {
	in := NewInjector(NewRegistry())
	ctx := newFakeContext("root", nil)
	ctx.provide(ValueProvider{Provide: "n", Value: 7})

	n, err := ResolveAs[int](in, "n", ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = ResolveAs[string](in, "n", ctx)
	assert.Error(t, err, "wrong type assertion surfaces as an error")
}

func TestRegistryDeclareIsWriteOnce(t *testing.T) {
	registry := NewRegistry()
	decl := Declaration{Token: "svc", New: func([]any) any { return nil }}
	require.NoError(t, registry.Declare(decl))
	assert.Error(t, registry.Declare(decl))
	assert.Error(t, registry.Declare(Declaration{}), "empty token rejected")
}
