package component

import (
	"fmt"

	"github.com/nextcore/axon/pkg/di"
)

// Component implements di.Context so services resolve through the component
// hierarchy directly.
var _ di.Context = (*Component)(nil)

// ContextID identifies the component in resolution errors.
func (c *Component) ContextID() string {
	if c.desc.Name != "" {
		return c.desc.Name + "#" + c.id
	}
	return c.id
}

// ParentContext returns the parent component as a resolution context. A nil
// parent returns a nil interface, not a typed nil.
func (c *Component) ParentContext() di.Context {
	p := c.Parent()
	if p == nil {
		return nil
	}
	return p
}

// ProviderFor returns this component's own provider for a token. The
// injector walks the parent chain; this only consults the local map.
func (c *Component) ProviderFor(token di.Token) (di.Provider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.providers[token]
	return p, ok
}

// RegisterProvider binds a provider on this component. A token already bound
// here is a configuration error.
func (c *Component) RegisterProvider(p di.Provider) error {
	if p == nil {
		return fmt.Errorf("component: nil provider on %s", c.ContextID())
	}
	token := p.Token()
	if token == "" {
		return fmt.Errorf("component: provider with empty token on %s", c.ContextID())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.providers[token]; ok {
		return fmt.Errorf("component: token %q already provided on %s", token, c.ContextID())
	}
	c.providers[token] = p
	return nil
}

// Instance returns a resolved instance stored on this component.
func (c *Component) Instance(token di.Token) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.instances[token]
	return v, ok
}

// SetInstance stores a resolved instance on this component. Resolver plugins
// use it to publish fetched data under the resolver's token.
func (c *Component) SetInstance(token di.Token, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[token] = value
}

// ScopedInstance returns the per-component memo for a ScopeByComponent token.
func (c *Component) ScopedInstance(token di.Token) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.scoped[token]
	return v, ok
}

// SetScopedInstance memoizes a ScopeByComponent instance on this component.
func (c *Component) SetScopedInstance(token di.Token, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scoped[token] = value
}

// Resolve resolves a token through the component's injector, starting at
// this component and walking toward the root.
func (c *Component) Resolve(token di.Token) (any, error) {
	in := c.Injector()
	if in == nil {
		return nil, fmt.Errorf("component: no injector attached to %s", c.ContextID())
	}
	return in.Resolve(token, c)
}
