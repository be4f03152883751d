package plugins

import (
	"time"

	"github.com/nextcore/axon/pkg/component"
	"github.com/nextcore/axon/pkg/errors"
	"github.com/nextcore/axon/pkg/lifecycle"
	"github.com/nextcore/axon/pkg/observe"
)

// UseProviders registers a component's declared providers into its own
// provider map at the very start of the Created phase, before any plugin
// resolves against the component.
func UseProviders() lifecycle.Plugin {
	return lifecycle.Plugin{
		ID:       "use-providers",
		Phase:    component.Created,
		Priority: 1,
		Execute: func(c *component.Component) *observe.Task {
			for _, p := range c.Descriptor().Providers {
				if err := c.RegisterProvider(p); err != nil {
					errors.Report(&errors.RuntimeError{
						Op:        "plugins.UseProviders",
						Kind:      errors.KindResolution,
						Err:       err,
						Component: c.ID(),
						Timestamp: time.Now(),
					})
				}
			}
			return nil
		},
	}
}
