package di

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/nextcore/axon/pkg/errors"
)

// nodeColor represents the color of a node during DFS for cycle detection.
type nodeColor int

const (
	white nodeColor = iota // unvisited
	gray                   // currently on the DFS path
	black                  // completely processed
)

// Validator performs static analysis over the injectable registry: every
// declared dependency must itself be declared, and the dependency graph must
// be acyclic. Both checks run to completion and aggregate all violations, so
// one Validate call reports every problem in the graph.
//
// Validate is intended to run once at application bootstrap, before any
// component is instantiated. It is advisory: resolution still fails lazily
// if validation is skipped.
type Validator struct {
	Registry *Registry
	Logger   hclog.Logger
	// Development enables the one-line success summary log.
	Development bool
}

// Validate checks the registry and returns a single *errors.ValidationError
// enumerating all missing registrations and cycles, or nil when the graph is
// clean.
func (v *Validator) Validate() error {
	tokens := v.Registry.Tokens()

	var missing []errors.MissingDependency
	for _, token := range tokens {
		decl, _ := v.Registry.Lookup(token)
		for _, dep := range decl.Deps {
			if !v.Registry.Registered(dep) {
				missing = append(missing, errors.MissingDependency{
					Consumer:   string(token),
					Dependency: string(dep),
				})
			}
		}
	}

	cycles := v.findCycles(tokens)

	if len(missing) > 0 || len(cycles) > 0 {
		return &errors.ValidationError{Missing: missing, Cycles: cycles}
	}

	if v.Development && v.Logger != nil {
		v.Logger.Info("dependency graph validated", "injectables", len(tokens))
	}
	return nil
}

// findCycles runs DFS from every unvisited token and collects each distinct
// cycle as the ordered token list on it. Unregistered dependencies are
// skipped here; the missing-dependency check reports those.
func (v *Validator) findCycles(tokens []Token) [][]string {
	colors := make(map[Token]nodeColor, len(tokens))
	var cycles [][]string
	seen := make(map[string]bool)

	var path []Token
	var visit func(token Token)
	visit = func(token Token) {
		colors[token] = gray
		path = append(path, token)

		decl, _ := v.Registry.Lookup(token)
		for _, dep := range decl.Deps {
			if !v.Registry.Registered(dep) {
				continue
			}
			switch colors[dep] {
			case gray:
				// Back edge: the cycle is the path segment from dep onward.
				for i, onPath := range path {
					if onPath == dep {
						cycle := canonicalCycle(path[i:])
						key := strings.Join(cycle, "->")
						if !seen[key] {
							seen[key] = true
							cycles = append(cycles, cycle)
						}
						break
					}
				}
			case white:
				visit(dep)
			}
		}

		path = path[:len(path)-1]
		colors[token] = black
	}

	for _, token := range tokens {
		if colors[token] == white {
			visit(token)
		}
	}
	return cycles
}

// canonicalCycle rotates a cycle so it starts at its lexicographically
// smallest token, making the same cycle discovered from different entry
// points compare equal.
func canonicalCycle(cycle []Token) []string {
	start := 0
	for i, token := range cycle {
		if token < cycle[start] {
			start = i
		}
	}
	out := make([]string, 0, len(cycle))
	for i := range cycle {
		out = append(out, string(cycle[(start+i)%len(cycle)]))
	}
	return out
}
