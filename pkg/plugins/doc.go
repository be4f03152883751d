// Package plugins supplies the standard lifecycle plugins: provider
// registration, guard gating, the stateful render pipeline, resolver data
// loading, watch wiring, and mount hooks. Each is an ordinary
// lifecycle.Plugin; applications can omit, reorder, or add their own.
package plugins
