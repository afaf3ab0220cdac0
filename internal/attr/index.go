package attr

import (
	"strconv"
	"strings"
)

// Index is a read-only view of one group's Content with names folded to
// lower case once.
type Index struct {
	nodes  []Node
	folded []string
	// byName lists the positions of every node with a given folded name,
	// in content order.
	byName map[string][]int
}

// NewIndex builds the index of a group's content. The group must not be
// modified while the index is in use.
func NewIndex(g *Group) *Index {
	idx := &Index{
		nodes:  g.Content,
		folded: make([]string, len(g.Content)),
		byName: make(map[string][]int, len(g.Content)),
	}
	for i, n := range g.Content {
		key := strings.ToLower(n.Name)
		idx.folded[i] = key
		idx.byName[key] = append(idx.byName[key], i)
	}
	return idx
}

// Len returns the number of nodes.
func (x *Index) Len() int { return len(x.nodes) }

// Node returns the i-th node in content order.
func (x *Index) Node(i int) *Node { return &x.nodes[i] }

// Folded returns the lower-cased name of the i-th node.
func (x *Index) Folded(i int) string { return x.folded[i] }

// Has reports whether a node with the given name exists.
func (x *Index) Has(name string) bool {
	return len(x.byName[strings.ToLower(name)]) > 0
}

// Get returns the first node with the given name, or nil.
func (x *Index) Get(name string) *Node {
	pos := x.byName[strings.ToLower(name)]
	if len(pos) == 0 {
		return nil
	}
	return &x.nodes[pos[0]]
}

// Indexed returns the i-th indexed node named name: the (i+1)-th node
// carrying exactly that name, or for i > 0 the first node named name_i.
func (x *Index) Indexed(name string, i int) *Node {
	key := strings.ToLower(name)
	if pos := x.byName[key]; i < len(pos) {
		return &x.nodes[pos[i]]
	}
	if i == 0 {
		return nil
	}
	if pos := x.byName[key+"_"+strconv.Itoa(i)]; len(pos) > 0 {
		return &x.nodes[pos[0]]
	}
	return nil
}

// HasPrefixFold reports whether the i-th node name starts with prefix,
// ignoring case.
func (x *Index) HasPrefixFold(i int, prefix string) bool {
	return strings.HasPrefix(x.folded[i], strings.ToLower(prefix))
}
