package plugins

import (
	"github.com/hashicorp/go-hclog"

	"github.com/nextcore/axon/pkg/lifecycle"
)

// RegisterStandard installs the standard plugin suite into a set:
// provider registration, guard gating, the stateful render pipeline,
// resolver loading, watch wiring, and mount hooks, in their conventional
// priorities.
func RegisterStandard(set *lifecycle.PluginSet, logger hclog.Logger) {
	set.Register(UseProviders())
	set.Register(Guards())
	set.Register(StatefulRender(logger))
	set.Register(Resolvers())
	set.Register(Watchers())
	set.Register(Mount())
}
