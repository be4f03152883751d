package di

// Context is the resolution position in the component hierarchy. Components
// implement it; services resolve through the Context of the component that
// owns them.
type Context interface {
	// ContextID identifies the context for error reporting.
	ContextID() string
	// ParentContext returns the owning component's parent, or nil at the
	// root.
	ParentContext() Context
	// ProviderFor returns the provider registered on this context for a
	// token, if any. Only this context's own provider map is consulted;
	// the Injector performs the parent-chain walk.
	ProviderFor(token Token) (Provider, bool)
	// Instance returns a previously resolved instance for a token.
	Instance(token Token) (any, bool)
	// SetInstance stores a resolved instance for a token.
	SetInstance(token Token, value any)
	// ScopedInstance returns the ScopeByComponent memoized instance for a
	// token, if any.
	ScopedInstance(token Token) (any, bool)
	// SetScopedInstance memoizes a ScopeByComponent instance.
	SetScopedInstance(token Token, value any)
}

// Provider describes how to satisfy a token. Providers are immutable once
// registered for a component.
type Provider interface {
	// Token returns the token this provider satisfies.
	Token() Token
}

// ValueProvider satisfies a token with a precomputed value.
type ValueProvider struct {
	Provide Token
	Value   any
}

// Token returns the provided token.
func (p ValueProvider) Token() Token { return p.Provide }

// ClassProvider satisfies a token by constructing a registered class. Class
// names the declaration to construct; when empty, the provided token's own
// declaration is used.
type ClassProvider struct {
	Provide Token
	Class   Token
}

// Token returns the provided token.
func (p ClassProvider) Token() Token { return p.Provide }

// FactoryProvider satisfies a token by invoking a function. The factory
// receives the providing context and the injector so it can resolve its own
// inputs.
type FactoryProvider struct {
	Provide Token
	Factory func(ctx Context, in *Injector) (any, error)
}

// Token returns the provided token.
func (p FactoryProvider) Token() Token { return p.Provide }

// ExistingProvider aliases a token to another token. The alias resolves by
// re-running the hierarchy search from the original requester, so overrides
// introduced below the aliasing component stay visible.
type ExistingProvider struct {
	Provide Token
	Alias   Token
}

// Token returns the provided token.
func (p ExistingProvider) Token() Token { return p.Provide }
