// Package objgraph is the structured, JSON-like value graph produced by the
// codec: ordered objects, arrays and byte strings.
//
// Objects keep property insertion order. Setting an existing key replaces
// its value in place, so the key keeps the position of its first insertion.
// A graph may be cyclic (see codec.AttachToSelf); every encoder in this
// package detects cycles instead of recursing forever.
package objgraph

import (
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrCyclic is returned by encoders that meet an object already on the
// current path.
var ErrCyclic = errors.New("objgraph: cyclic object graph")

// Value is one of String, Array or *Object.
type Value interface {
	isValue()
}

// String is a byte string. It may hold arbitrary bytes, zero bytes
// included.
type String string

// Array is an ordered sequence of values.
type Array []Value

// Object is an ordered set of named properties.
type Object struct {
	props *orderedmap.OrderedMap[string, Value]
}

func (String) isValue()  {}
func (Array) isValue()   {}
func (*Object) isValue() {}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{props: orderedmap.New[string, Value]()}
}

// Set assigns a property.
func (o *Object) Set(key string, v Value) {
	o.props.Set(key, v)
}

// Get returns a property.
func (o *Object) Get(key string) (Value, bool) {
	return o.props.Get(key)
}

// Delete removes a property.
func (o *Object) Delete(key string) {
	o.props.Delete(key)
}

// Len returns the number of properties.
func (o *Object) Len() int {
	return o.props.Len()
}

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.props.Len())
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for every property in insertion order until fn returns
// false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// GetString returns a string property.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.props.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// GetObject returns an object property.
func (o *Object) GetObject(key string) (*Object, bool) {
	v, ok := o.props.Get(key)
	if !ok {
		return nil, false
	}
	obj, ok := v.(*Object)
	return obj, ok
}

// Clone returns a deep copy of the object. Cycles are preserved: an object
// reachable twice on the same path is copied once.
func (o *Object) Clone() *Object {
	return cloneValue(o, map[*Object]*Object{}).(*Object)
}

func cloneValue(v Value, seen map[*Object]*Object) Value {
	switch t := v.(type) {
	case *Object:
		if c, ok := seen[t]; ok {
			return c
		}
		c := NewObject()
		seen[t] = c
		t.Range(func(k string, pv Value) bool {
			c.Set(k, cloneValue(pv, seen))
			return true
		})
		return c
	case Array:
		c := make(Array, len(t))
		for i, ev := range t {
			c[i] = cloneValue(ev, seen)
		}
		return c
	default:
		return v
	}
}

// Equal reports whether two values are structurally equal, property order
// included. Cyclic graphs compare equal when their cycles have the same
// shape.
func Equal(a, b Value) bool {
	return equal(a, b, map[[2]*Object]bool{})
}

func equal(a, b Value, visiting map[[2]*Object]bool) bool {
	switch ta := a.(type) {
	case String:
		tb, ok := b.(String)
		return ok && ta == tb
	case Array:
		tb, ok := b.(Array)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !equal(ta[i], tb[i], visiting) {
				return false
			}
		}
		return true
	case *Object:
		tb, ok := b.(*Object)
		if !ok || ta.Len() != tb.Len() {
			return false
		}
		pair := [2]*Object{ta, tb}
		if visiting[pair] {
			return true
		}
		visiting[pair] = true
		pa, pb := ta.props.Oldest(), tb.props.Oldest()
		for ; pa != nil && pb != nil; pa, pb = pa.Next(), pb.Next() {
			if pa.Key != pb.Key || !equal(pa.Value, pb.Value, visiting) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
