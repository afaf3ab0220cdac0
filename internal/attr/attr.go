package attr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Reserved node names. They are only meaningful inside a group's Content.
const (
	IsArray     = "isArray"
	Size        = "size"
	Length      = "length"
	ValuePrefix = "value"
)

// Node is a single key/value attribute.
type Node struct {
	Name  string
	Value []byte
}

// String builds a Node holding a text value.
func String(name, value string) Node {
	return Node{Name: name, Value: []byte(value)}
}

// Bytes builds a Node holding raw bytes. The slice is copied.
func Bytes(name string, value []byte) Node {
	return Node{Name: name, Value: bytes.Clone(value)}
}

// Text returns the value read as a NUL-terminated string.
func (n Node) Text() string {
	if i := bytes.IndexByte(n.Value, 0); i >= 0 {
		return string(n.Value[:i])
	}
	return string(n.Value)
}

// Prefix returns exactly size bytes of the value, embedded zero bytes
// included.
func (n Node) Prefix(size int) ([]byte, error) {
	if size < 0 || size > len(n.Value) {
		return nil, fmt.Errorf("node %q holds %d bytes, cannot read %d", n.Name, len(n.Value), size)
	}
	return n.Value[:size], nil
}

// Int parses the NUL-terminated text of the node as a decimal integer.
func (n Node) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(n.Text()))
}

// Group is a named, ordered collection of Nodes with an optional nested
// forest.
type Group struct {
	Name    string
	Content []Node
	Child   Forest
}

// NewGroup creates a group holding the given nodes.
func NewGroup(name string, content ...Node) *Group {
	return &Group{Name: name, Content: content}
}

// Get returns the first node whose name matches case-insensitively, or nil.
func (g *Group) Get(name string) *Node {
	for i := range g.Content {
		if strings.EqualFold(g.Content[i].Name, name) {
			return &g.Content[i]
		}
	}
	return nil
}

// Set replaces the value of the first node matching name case-insensitively
// or appends a new node when none exists.
func (g *Group) Set(name string, value []byte) {
	if n := g.Get(name); n != nil {
		n.Value = bytes.Clone(value)
		return
	}
	g.Content = append(g.Content, Bytes(name, value))
}

// SetIndexed writes the i-th indexed node named name, the node
// Index.Indexed resolves: the (i+1)-th plain occurrence, else for i > 0
// the first name_i node. A new name_i node is appended when neither exists.
func (g *Group) SetIndexed(name string, i int, value []byte) {
	if pos := g.indexedPos(name, i); pos >= 0 {
		g.Content[pos].Value = bytes.Clone(value)
		return
	}
	g.Content = append(g.Content, Bytes(IndexedName(name, i), value))
}

func (g *Group) indexedPos(name string, i int) int {
	plain, suffixed := 0, -1
	for pos := range g.Content {
		idx, ok := IndexOf(g.Content[pos].Name, name)
		if !ok {
			continue
		}
		if idx == 0 {
			if plain == i {
				return pos
			}
			plain++
		} else if idx == i && suffixed < 0 {
			suffixed = pos
		}
	}
	return suffixed
}

// HasIndexed reports whether any plain or name_i node exists.
func (g *Group) HasIndexed(name string) bool {
	for _, n := range g.Content {
		if _, ok := IndexOf(n.Name, name); ok {
			return true
		}
	}
	return false
}

// TruncateIndexed removes the nodes addressing indices n and above: plain
// occurrences after the n-th and name_i nodes with i >= n.
func (g *Group) TruncateIndexed(name string, n int) {
	kept := g.Content[:0]
	plain := 0
	for _, node := range g.Content {
		idx, ok := IndexOf(node.Name, name)
		if ok && idx == 0 {
			idx = plain
			plain++
		}
		if ok && idx >= n {
			continue
		}
		kept = append(kept, node)
	}
	clear(g.Content[len(kept):])
	g.Content = kept
}

// IndexOf reports which index of name a node name addresses: 0 for the
// plain name, i for name_i (i > 0). Matching ignores case.
func IndexOf(nodeName, name string) (int, bool) {
	if strings.EqualFold(nodeName, name) {
		return 0, true
	}
	if len(nodeName) <= len(name)+1 || !strings.EqualFold(nodeName[:len(name)], name) || nodeName[len(name)] != '_' {
		return 0, false
	}
	digits := nodeName[len(name)+1:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(digits)
	if err != nil || i == 0 || digits[0] == '0' {
		return 0, false
	}
	return i, true
}

// Clone returns a deep copy of the group and its nested forest.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	c := &Group{Name: g.Name, Child: g.Child.Clone()}
	if g.Content != nil {
		c.Content = make([]Node, len(g.Content))
		for i, n := range g.Content {
			c.Content[i] = Bytes(n.Name, n.Value)
		}
	}
	return c
}

// IndexedName returns the node name addressing index i of name.
func IndexedName(name string, i int) string {
	if i == 0 {
		return name
	}
	return name + "_" + strconv.Itoa(i)
}

// Forest is an ordered list of sibling groups.
type Forest []*Group

// Find returns the first group with the given name, or nil.
func (f Forest) Find(name string) *Group {
	for _, g := range f {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Clone returns a deep copy of the forest.
func (f Forest) Clone() Forest {
	if f == nil {
		return nil
	}
	c := make(Forest, len(f))
	for i, g := range f {
		c[i] = g.Clone()
	}
	return c
}
