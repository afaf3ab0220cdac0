package attr

// TypeResolver names the node carrying the per-element type label of a
// group in array mode.
type TypeResolver interface {
	// Resolve returns the type-tag node of the group, or nil when the group
	// declares no recognized type attribute.
	Resolve(idx *Index) *Node
}

// CandidateResolver resolves the first present name of its list.
type CandidateResolver []string

// DefaultResolver checks the kernel's element-type attributes in priority
// order.
var DefaultResolver = CandidateResolver{"mimeType", "dataType", "CRS"}

// Resolve implements TypeResolver.
func (c CandidateResolver) Resolve(idx *Index) *Node {
	for _, name := range c {
		if n := idx.Get(name); n != nil {
			return n
		}
	}
	return nil
}

// ResolverFunc adapts a plain function to TypeResolver.
type ResolverFunc func(idx *Index) *Node

// Resolve implements TypeResolver.
func (f ResolverFunc) Resolve(idx *Index) *Node { return f(idx) }
