package di

import (
	"fmt"
	"sync"
)

// Token is an opaque key identifying an injectable dependency.
type Token string

// Scope is the resolution lifetime policy for an injectable.
type Scope int

const (
	// ScopeSingleton resolves to one instance per registration event.
	// This is the default for unregistered tokens.
	ScopeSingleton Scope = iota
	// ScopeByComponent memoizes one instance per requesting component
	// subtree.
	ScopeByComponent
)

func (s Scope) String() string {
	switch s {
	case ScopeByComponent:
		return "by-component"
	default:
		return "singleton"
	}
}

// Declaration registers an injectable type: its token, scope, dependency
// token list, and constructor. New receives the resolved dependencies in the
// same order as Deps.
type Declaration struct {
	Token Token
	Scope Scope
	Deps  []Token
	New   func(deps []any) any
}

// Registry holds all injectable declarations. It is written at declaration
// time (before first use) and read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	decls map[Token]Declaration
	order []Token
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decls: make(map[Token]Declaration)}
}

// Declare adds an injectable declaration. Redeclaring a token is an error;
// declarations are write-once.
func (r *Registry) Declare(d Declaration) error {
	if d.Token == "" {
		return fmt.Errorf("di: declaration with empty token")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decls[d.Token]; exists {
		return fmt.Errorf("di: token %q already declared", d.Token)
	}
	r.decls[d.Token] = d
	r.order = append(r.order, d.Token)
	return nil
}

// Lookup returns the declaration for a token.
func (r *Registry) Lookup(token Token) (Declaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decls[token]
	return d, ok
}

// Registered reports whether a token has a declaration.
func (r *Registry) Registered(token Token) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decls[token]
	return ok
}

// ScopeOf returns the declared scope for a token, defaulting to
// ScopeSingleton for unregistered tokens.
func (r *Registry) ScopeOf(token Token) Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.decls[token]; ok {
		return d.Scope
	}
	return ScopeSingleton
}

// Tokens returns all declared tokens in declaration order.
func (r *Registry) Tokens() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Token, len(r.order))
	copy(out, r.order)
	return out
}
