package app

import "github.com/nextcore/axon/pkg/component"

// Renderer consumes component output. The runtime never interprets nodes; it
// hands each component's latest output to the renderer and the renderer
// decides what attachment means.
type Renderer interface {
	// Render is called with a component's latest output whenever it changes.
	Render(c *component.Component, node component.Node)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(c *component.Component, node component.Node)

// Render calls the function.
func (f RendererFunc) Render(c *component.Component, node component.Node) { f(c, node) }
