package codec

import (
	"github.com/vk/attrbridge/internal/attr"
)

// ChildPlacement selects where a converted group object is installed.
type ChildPlacement int

const (
	// AttachToParent sets each group's object on the enclosing result,
	// keyed by the group name.
	AttachToParent ChildPlacement = iota
	// AttachToSelf reproduces the kernel's historical placement: the group
	// object receives a property named after the group that points back at
	// itself, and the enclosing result stays empty. The resulting graphs
	// are cyclic.
	AttachToSelf
)

// ParsePlacement maps "parent" and "self" to a ChildPlacement.
func ParsePlacement(s string) (ChildPlacement, bool) {
	switch s {
	case "", "parent":
		return AttachToParent, true
	case "self":
		return AttachToSelf, true
	}
	return AttachToParent, false
}

func (p ChildPlacement) String() string {
	if p == AttachToSelf {
		return "self"
	}
	return "parent"
}

// Converter turns attribute forests into object graphs. A Converter holds
// no mutable state and may be shared.
type Converter struct {
	placement ChildPlacement
	resolver  attr.TypeResolver
}

// Option configures a Converter.
type Option func(*Converter)

// WithPlacement sets the group placement policy.
func WithPlacement(p ChildPlacement) Option {
	return func(c *Converter) { c.placement = p }
}

// WithResolver replaces the default type resolver.
func WithResolver(r attr.TypeResolver) Option {
	return func(c *Converter) { c.resolver = r }
}

// New creates a Converter. Without options it attaches groups to their
// parent and resolves type tags with attr.DefaultResolver.
func New(opts ...Option) *Converter {
	c := &Converter{
		placement: AttachToParent,
		resolver:  attr.DefaultResolver,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Placement returns the configured placement policy.
func (c *Converter) Placement() ChildPlacement {
	return c.placement
}
