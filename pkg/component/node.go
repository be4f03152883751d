package component

// NodeKind identifies what occupies a position in the output tree
// description handed to the renderer collaborator.
type NodeKind int

const (
	// NodeEmpty renders nothing.
	NodeEmpty NodeKind = iota
	// NodeElement is a primitive output element (tag + props + children).
	NodeElement
	// NodeText is a text leaf.
	NodeText
	// NodeComponent embeds a child component instance.
	NodeComponent
	// NodePlaceholder marks a not-yet-resolved position: a component whose
	// guards are still evaluating, or an observable-driven region that has
	// not emitted yet.
	NodePlaceholder
)

// Node is the recursive tree description the core hands to the renderer.
// It is plain data: the renderer pulls "what should occupy this position
// now" and re-pulls whenever an emission changes that position's content.
type Node struct {
	Kind NodeKind
	// Tag is the element tag for NodeElement.
	Tag string
	// Text is the content for NodeText.
	Text string
	// Slot names the child slot this node fills on its parent component.
	// Empty means the default slot.
	Slot string
	// Label names the fragment a NodePlaceholder stands in for.
	Label string
	Props map[string]any
	Children []Node
	// Component is set for NodeComponent.
	Component *Component
}

// ElementNode builds a primitive element node.
func ElementNode(tag string, props map[string]any, children ...Node) Node {
	return Node{Kind: NodeElement, Tag: tag, Props: props, Children: children}
}

// TextNode builds a text leaf.
func TextNode(text string) Node {
	return Node{Kind: NodeText, Text: text}
}

// ComponentNode embeds a child component.
func ComponentNode(c *Component) Node {
	return Node{Kind: NodeComponent, Component: c}
}

// PlaceholderNode marks an unresolved position, optionally labelled with the
// fragment it stands in for.
func PlaceholderNode(label string) Node {
	return Node{Kind: NodePlaceholder, Label: label}
}
