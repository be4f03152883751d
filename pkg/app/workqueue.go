package app

import (
	"slices"
	"sync"

	"github.com/nextcore/axon/pkg/component"
)

// WorkQueue tracks components whose output is stale and needs recomputing.
type WorkQueue struct {
	dirty    []*component.Component
	dirtySet map[*component.Component]bool
	mu       sync.Mutex

	// OnNeedsWork is called when a component is newly scheduled, signalling
	// the host that a flush should happen. This supports on-demand
	// scheduling where the host only flushes when something changed.
	OnNeedsWork func()
}

// NewWorkQueue creates an empty WorkQueue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{
		dirtySet: make(map[*component.Component]bool),
	}
}

// Schedule marks a component as needing re-render. Scheduling an
// already-dirty component is a no-op.
func (q *WorkQueue) Schedule(c *component.Component) {
	added := func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.dirtySet[c] {
			return false
		}
		q.dirtySet[c] = true
		q.dirty = append(q.dirty, c)
		return true
	}()

	if added && q.OnNeedsWork != nil {
		q.OnNeedsWork()
	}
}

// NeedsWork reports whether any component is scheduled.
func (q *WorkQueue) NeedsWork() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dirty) > 0
}

// Flush re-renders all scheduled components in depth order, parents before
// children, so a parent's re-render that schedules a child is handled in the
// same flush.
func (q *WorkQueue) Flush() {
	for {
		q.mu.Lock()
		if len(q.dirty) == 0 {
			q.mu.Unlock()
			return
		}

		slices.SortFunc(q.dirty, func(a, b *component.Component) int {
			return a.Depth() - b.Depth()
		})

		dirty := q.dirty
		q.dirty = nil
		clear(q.dirtySet)
		q.mu.Unlock()

		for _, c := range dirty {
			if c.Destroyed() {
				continue
			}
			c.Invalidate()
		}
	}
}
