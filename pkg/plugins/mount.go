package plugins

import (
	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/observe"
)

// Mount invokes the component's mount hook at the end of the Mounted phase,
// after watch subscriptions are wired. Panics are isolated by the lifecycle
// manager like any other plugin failure.
func Mount() lifecycle.Plugin {
	return lifecycle.Plugin{
		ID:       "mount",
		Phase:    component.Mounted,
		Priority: 100,
		Execute: func(c *component.Component) *observe.Task {
			if hook := c.Descriptor().OnMount; hook != nil {
				hook(c)
			}
			return nil
		},
	}
}
