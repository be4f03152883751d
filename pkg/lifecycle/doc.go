// Package lifecycle coordinates component lifecycle phases through an open
// set of prioritized plugins. The runtime itself is a thin sequencer: all
// per-phase behavior, from provider registration to guard gating to mount
// hooks, is contributed as plugins executing in ascending priority order.
package lifecycle
