package lifecycle

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/observe"
)

// Priority bounds for plugin registration.
const (
	MinPriority = 0
	MaxPriority = 1000
)

// Plugin contributes behavior to one lifecycle phase. Execute runs for every
// component reaching the plugin's phase; returning a Task defers the rest of
// the phase sequence until the task settles. Returning nil means the plugin
// finished synchronously.
//
// BeforeDestroy plugins must do their work synchronously: the unmount signal
// fires right after the phase emission during Destroy, and unmount discards
// any pending phase work.
type Plugin struct {
	// ID uniquely identifies the plugin within a set.
	ID string
	// Phase is the lifecycle phase the plugin executes in.
	Phase component.Phase
	// Priority orders execution within the phase, ascending. Valid range is
	// MinPriority to MaxPriority.
	Priority int
	Execute  func(c *component.Component) *observe.Task
}

// PluginSet is an ordered registry of lifecycle plugins. Registration is
// first-wins per id: a duplicate id is logged and ignored rather than
// replacing the existing plugin.
type PluginSet struct {
	mu      sync.Mutex
	logger  hclog.Logger
	plugins []Plugin
	ids     map[string]struct{}
}

// NewPluginSet creates an empty plugin set. A nil logger falls back to the
// hclog default.
func NewPluginSet(logger hclog.Logger) *PluginSet {
	if logger == nil {
		logger = hclog.Default()
	}
	return &PluginSet{
		logger: logger.Named("plugins"),
		ids:    make(map[string]struct{}),
	}
}

// Register adds a plugin to the set. It reports whether the plugin was
// accepted: a duplicate id, empty id, missing execute, or out-of-range
// priority is rejected with a log entry and the set is left unchanged.
func (s *PluginSet) Register(p Plugin) bool {
	if p.ID == "" {
		s.logger.Warn("rejecting plugin with empty id")
		return false
	}
	if p.Execute == nil {
		s.logger.Warn("rejecting plugin with nil execute", "plugin", p.ID)
		return false
	}
	if p.Priority < MinPriority || p.Priority > MaxPriority {
		s.logger.Warn("rejecting plugin with out-of-range priority",
			"plugin", p.ID, "priority", p.Priority)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[p.ID]; ok {
		s.logger.Warn("duplicate plugin id ignored", "plugin", p.ID)
		return false
	}
	s.ids[p.ID] = struct{}{}
	s.plugins = append(s.plugins, p)
	return true
}

// ForPhase returns the plugins registered for a phase in execution order:
// ascending priority, registration order breaking ties.
func (s *PluginSet) ForPhase(phase component.Phase) []Plugin {
	s.mu.Lock()
	var out []Plugin
	for _, p := range s.plugins {
		if p.Phase == phase {
			out = append(out, p)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Len returns the number of registered plugins.
func (s *PluginSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plugins)
}
