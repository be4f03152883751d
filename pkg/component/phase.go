package component

import "fmt"

// Phase is a component's lifecycle phase. Phases advance in strict forward
// order and never regress, except through the explicit reattach reset path
// when a component instance is reused under a different parent.
type Phase int

const (
	// Created is the initial phase: the instance exists, render has not
	// been invoked.
	Created Phase = iota
	// BeforeMount runs after tree construction, before output attachment.
	BeforeMount
	// Mounted runs once the host reports the component's output attached.
	Mounted
	// AfterMount runs after all Mounted plugins have settled.
	AfterMount
	// BeforeDestroy runs at the start of the destroy sequence.
	BeforeDestroy
	// Destroyed is terminal: the instance is inert.
	Destroyed
)

func (p Phase) String() string {
	switch p {
	case Created:
		return "created"
	case BeforeMount:
		return "before-mount"
	case Mounted:
		return "mounted"
	case AfterMount:
		return "after-mount"
	case BeforeDestroy:
		return "before-destroy"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
