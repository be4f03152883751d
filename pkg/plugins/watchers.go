package plugins

import (
	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/observe"
)

// Watchers wires a component's declared watch subscriptions during the
// Mounted phase. It runs before the mount hook so a handler pushing values
// synchronously from OnMount is still observed. Every subscription is scoped
// to the component's unmount signal.
func Watchers() lifecycle.Plugin {
	return lifecycle.Plugin{
		ID:       "watchers",
		Phase:    component.Mounted,
		Priority: 50,
		Execute: func(c *component.Component) *observe.Task {
			unmount := c.Unmount()
			for _, w := range c.Descriptor().Watches {
				if w.Source == nil || w.Handler == nil {
					continue
				}
				source := w.Source(c)
				if source == nil {
					continue
				}
				handler := w.Handler
				source.SubscribeUntil(unmount, func(v any) {
					handler(c, v)
				})
			}
			return nil
		},
	}
}
