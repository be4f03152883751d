package di

import (
	"fmt"

	"github.com/nextcore/axon/pkg/errors"
)

// Injector resolves tokens against a component hierarchy.
//
// Resolution starts at the requesting context and walks parent pointers to
// the root. ScopeByComponent tokens are memoized on the requesting context
// before the tree search runs, which guarantees one instance per component
// subtree regardless of how many descendants request the token.
type Injector struct {
	registry *Registry
}

// NewInjector creates an Injector backed by the given registry.
func NewInjector(registry *Registry) *Injector {
	return &Injector{registry: registry}
}

// Registry returns the injectable registry backing this injector.
func (in *Injector) Registry() *Registry {
	return in.registry
}

// Resolve returns the value satisfying token for the requesting context.
// A miss anywhere from the requester to the root is a *errors.ResolutionError.
func (in *Injector) Resolve(token Token, ctx Context) (any, error) {
	if ctx == nil {
		return nil, &errors.ResolutionError{Token: string(token)}
	}

	byComponent := in.registry.ScopeOf(token) == ScopeByComponent
	if byComponent {
		if v, ok := ctx.ScopedInstance(token); ok {
			return v, nil
		}
	}

	v, err := in.search(token, ctx)
	if err != nil {
		return nil, err
	}
	if byComponent {
		ctx.SetScopedInstance(token, v)
	}
	return v, nil
}

// search walks the parent chain from origin looking for an instance or a
// provider for the token.
func (in *Injector) search(token Token, origin Context) (any, error) {
	for cur := origin; cur != nil; cur = cur.ParentContext() {
		if v, ok := cur.Instance(token); ok {
			return v, nil
		}
		if p, ok := cur.ProviderFor(token); ok {
			return in.provide(p, cur, origin)
		}
	}
	return nil, &errors.ResolutionError{Token: string(token), Requester: origin.ContextID()}
}

// provide materializes a provider hit. owner is the context the provider is
// registered on; origin is the context that started the search.
//
// Singleton results cache on the owner so later searches short-circuit at
// the Instance check. ScopeByComponent results must not: the per-requester
// memo on the origin is the only cache, otherwise one subtree's instance
// would leak to its siblings.
func (in *Injector) provide(p Provider, owner, origin Context) (any, error) {
	cache := in.registry.ScopeOf(p.Token()) != ScopeByComponent

	switch p := p.(type) {
	case ValueProvider:
		if cache {
			owner.SetInstance(p.Provide, p.Value)
		}
		return p.Value, nil

	case ClassProvider:
		class := p.Class
		if class == "" {
			class = p.Provide
		}
		v, err := in.Construct(class, owner)
		if err != nil {
			return nil, err
		}
		if cache {
			owner.SetInstance(p.Provide, v)
		}
		return v, nil

	case FactoryProvider:
		if p.Factory == nil {
			return nil, fmt.Errorf("di: nil factory for token %q", p.Provide)
		}
		v, err := p.Factory(owner, in)
		if err != nil {
			return nil, err
		}
		if cache {
			owner.SetInstance(p.Provide, v)
		}
		return v, nil

	case ExistingProvider:
		// Re-run the tree search from the original requester rather than
		// dereferencing the aliased provider directly. The result is not
		// cached, so hierarchy overrides registered after the alias stay
		// consistent.
		return in.Resolve(p.Alias, origin)

	default:
		return nil, fmt.Errorf("di: unsupported provider %T for token %q", p, p.Token())
	}
}

// Construct instantiates a declared class and resolves the new instance's
// own declared dependencies depth-first before returning it, so the instance
// is fully wired by the time anything downstream inspects it.
func (in *Injector) Construct(token Token, ctx Context) (any, error) {
	decl, ok := in.registry.Lookup(token)
	if !ok || decl.New == nil {
		requester := ""
		if ctx != nil {
			requester = ctx.ContextID()
		}
		return nil, &errors.ResolutionError{Token: string(token), Requester: requester}
	}

	deps := make([]any, len(decl.Deps))
	for i, dep := range decl.Deps {
		v, err := in.Resolve(dep, ctx)
		if err != nil {
			return nil, err
		}
		deps[i] = v
	}
	return decl.New(deps), nil
}

// ResolveAs resolves token and asserts the result to T.
func ResolveAs[T any](in *Injector, token Token, ctx Context) (T, error) {
	var zero T
	v, err := in.Resolve(token, ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("di: token %q resolved to %T, not %T", token, v, zero)
	}
	return typed, nil
}
