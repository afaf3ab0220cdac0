package codec

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/attrbridge/internal/attr"
	"github.com/vk/attrbridge/internal/ctxlog"
	"github.com/vk/attrbridge/internal/objgraph"
)

// childKey is the property holding a group's converted child forest.
const childKey = "child"

type groupMode int

const (
	scalarMode groupMode = iota
	arrayMode
)

// plan is the reserved-name layout of one group, computed once before its
// nodes are visited.
type plan struct {
	mode groupMode
	idx  *attr.Index

	// scalar mode: byte length applied to value* nodes, when hasSize.
	hasSize bool
	size    int

	// array mode
	length    int
	tag       *attr.Node
	tagFolded string
}

func (c *Converter) classify(g *attr.Group) (*plan, error) {
	p := &plan{idx: attr.NewIndex(g)}

	if !p.idx.Has(attr.IsArray) {
		p.mode = scalarMode
		if n := p.idx.Get(attr.Size); n != nil {
			size, err := parseCount(n)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedSize, err)
			}
			p.hasSize, p.size = true, size
		}
		return p, nil
	}

	p.mode = arrayMode
	n := p.idx.Get(attr.Length)
	if n == nil {
		return nil, ErrMissingLength
	}
	length, err := parseCount(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingLength, err)
	}
	p.length = length

	p.tag = c.resolver.Resolve(p.idx)
	if p.tag == nil {
		return nil, ErrUnresolvedTypeTag
	}
	p.tagFolded = strings.ToLower(p.tag.Name)
	return p, nil
}

func parseCount(n *attr.Node) (int, error) {
	v, err := n.Int()
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not an integer", n.Name, n.Text())
	}
	if v < 0 {
		return 0, fmt.Errorf("%s=%d is negative", n.Name, v)
	}
	return v, nil
}

// ConvertForest converts every group of the forest, in order, and installs
// each group object according to the placement policy.
func (c *Converter) ConvertForest(ctx context.Context, forest attr.Forest) (*objgraph.Object, error) {
	return c.convertForest(ctx, forest, "")
}

// ConvertGroup converts a single group, its child forest included.
func (c *Converter) ConvertGroup(ctx context.Context, g *attr.Group) (*objgraph.Object, error) {
	return c.convertGroup(ctx, g, g.Name)
}

func (c *Converter) convertForest(ctx context.Context, forest attr.Forest, parent string) (*objgraph.Object, error) {
	logger := ctxlog.FromContext(ctx)
	res := objgraph.NewObject()
	for _, g := range forest {
		path := g.Name
		if parent != "" {
			path = parent + "/" + g.Name
		}
		obj, err := c.convertGroup(ctx, g, path)
		if err != nil {
			return nil, err
		}
		if c.placement == AttachToSelf {
			obj.Set(g.Name, obj)
		} else {
			res.Set(g.Name, obj)
		}
		logger.Debug("Object added.", "group", path, "properties", obj.Len())
	}
	return res, nil
}

func (c *Converter) convertGroup(ctx context.Context, g *attr.Group, path string) (*objgraph.Object, error) {
	p, err := c.classify(g)
	if err != nil {
		return nil, &ConversionError{Group: path, Err: err}
	}

	var obj *objgraph.Object
	if p.mode == arrayMode {
		ctxlog.FromContext(ctx).Debug("Converting array group.", "group", path, "length", p.length, "type_tag", p.tag.Name)
		obj, err = convertArray(p)
	} else {
		obj, err = convertScalar(p)
	}
	if err != nil {
		return nil, &ConversionError{Group: path, Err: err}
	}

	if len(g.Child) > 0 {
		child, err := c.convertForest(ctx, g.Child, path)
		if err != nil {
			return nil, err
		}
		obj.Set(childKey, child)
	}
	return obj, nil
}

func convertScalar(p *plan) (*objgraph.Object, error) {
	obj := objgraph.NewObject()
	for i := 0; i < p.idx.Len(); i++ {
		n := p.idx.Node(i)
		if p.hasSize && p.idx.HasPrefixFold(i, attr.ValuePrefix) {
			b, err := n.Prefix(p.size)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedSize, err)
			}
			obj.Set(n.Name, objgraph.String(b))
			continue
		}
		obj.Set(n.Name, objgraph.String(n.Text()))
	}
	return obj, nil
}

func convertArray(p *plan) (*objgraph.Object, error) {
	values := objgraph.Array{}
	tags := objgraph.Array{}

	for i := 0; i < p.length; i++ {
		if vn := p.idx.Indexed(attr.ValuePrefix, i); vn != nil {
			v, err := decodeIndexed(p.idx, vn, i)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if tn := p.idx.Indexed(p.tag.Name, i); tn != nil {
			tags = append(tags, objgraph.String(tn.Text()))
		}
	}

	obj := objgraph.NewObject()
	obj.Set(attr.ValuePrefix, values)
	obj.Set(p.tag.Name, tags)

	for i := 0; i < p.idx.Len(); i++ {
		if p.idx.HasPrefixFold(i, attr.ValuePrefix) ||
			p.idx.HasPrefixFold(i, attr.Size) ||
			strings.HasPrefix(p.idx.Folded(i), p.tagFolded) {
			continue
		}
		n := p.idx.Node(i)
		obj.Set(n.Name, objgraph.String(n.Text()))
	}
	return obj, nil
}

// decodeIndexed reads the value at index i, bounded by the indexed size
// node when one exists.
func decodeIndexed(idx *attr.Index, vn *attr.Node, i int) (objgraph.String, error) {
	sn := idx.Indexed(attr.Size, i)
	if sn == nil {
		return objgraph.String(vn.Text()), nil
	}
	size, err := parseCount(sn)
	if err != nil {
		return "", fmt.Errorf("%w: index %d: %v", ErrMalformedSize, i, err)
	}
	b, err := vn.Prefix(size)
	if err != nil {
		return "", fmt.Errorf("%w: index %d: %v", ErrMalformedSize, i, err)
	}
	return objgraph.String(b), nil
}
