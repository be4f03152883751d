// Package di implements hierarchical dependency injection for component
// trees.
//
// # Tokens and Declarations
//
// A Token is an opaque key identifying an injectable dependency. Injectable
// types are declared explicitly on a Registry — there is no reflection-based
// discovery. A Declaration carries the token, its resolution scope, its
// dependency token list, and a constructor receiving the resolved
// dependencies in declaration order:
//
//	registry.Declare(di.Declaration{
//	    Token: "http.Client",
//	    Scope: di.ScopeSingleton,
//	    Deps:  []di.Token{"app.Config"},
//	    New: func(deps []any) any {
//	        return newClient(deps[0].(*Config))
//	    },
//	})
//
// # Resolution
//
// Injector.Resolve walks the requesting component's parent chain: the
// component's own provider map is consulted first, then each ancestor up to
// the root. A miss anywhere on the chain is a *errors.ResolutionError.
// ScopeByComponent dependencies are memoized per requesting component, so a
// subtree sees exactly one instance no matter how many times the token is
// requested.
//
// # Validation
//
// Validator performs static analysis over the registry before any component
// is instantiated: it aggregates every missing registration and every
// dependency cycle into a single *errors.ValidationError. The validator is
// advisory tooling — resolution still fails lazily and locally if it is
// skipped.
package di
