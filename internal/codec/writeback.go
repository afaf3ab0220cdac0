package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vk/attrbridge/internal/attr"
	"github.com/vk/attrbridge/internal/ctxlog"
	"github.com/vk/attrbridge/internal/objgraph"
)

// Writeback applies an object graph, typically the outputs graph after a
// script ran, onto a forest and returns the updated forest.
//
// Every property of graph names a group, created at the end of the forest
// when missing. Properties of a group object update the group:
//
//   - strings set the named node, replacing the first case-insensitive
//     match or appending a new node;
//   - "child" objects recurse into the nested forest;
//   - arrays are written as indexed nodes (name, name_1, ...) and indexed
//     nodes past the new length are removed; a "value" array also sets
//     isArray and length, and keeps size_i in step with each element;
//   - other objects are stored as their JSON text.
//
// A string written to a value* node that contains a zero byte, or lands in
// a group already carrying a size node, updates size to its byte length.
// Properties that close a cycle are skipped.
func (c *Converter) Writeback(ctx context.Context, graph *objgraph.Object, forest attr.Forest) (attr.Forest, error) {
	w := &writer{logger: ctxlog.FromContext(ctx), onPath: map[*objgraph.Object]bool{graph: true}}
	return w.forest(graph, forest, "")
}

type writer struct {
	logger *slog.Logger
	onPath map[*objgraph.Object]bool
}

func (w *writer) forest(graph *objgraph.Object, forest attr.Forest, parent string) (attr.Forest, error) {
	var err error
	graph.Range(func(name string, v objgraph.Value) bool {
		path := name
		if parent != "" {
			path = parent + "/" + name
		}

		obj, ok := v.(*objgraph.Object)
		if !ok {
			// A bare value assigned to a group stands for its value node.
			obj = objgraph.NewObject()
			obj.Set(attr.ValuePrefix, v)
		}
		if w.onPath[obj] {
			w.logger.Debug("Skipping cyclic group reference.", "group", path)
			return true
		}

		g := forest.Find(name)
		if g == nil {
			g = attr.NewGroup(name)
			forest = append(forest, g)
			w.logger.Debug("Created output group.", "group", path)
		}

		w.onPath[obj] = true
		err = w.group(g, obj, path)
		delete(w.onPath, obj)
		return err == nil
	})
	return forest, err
}

func (w *writer) group(g *attr.Group, obj *objgraph.Object, path string) error {
	// size, isArray and length follow the written value; stale copies of
	// them carried by the object must not overwrite it.
	sizeFollowsValue, valueArray := false, false
	obj.Range(func(key string, v objgraph.Value) bool {
		switch v.(type) {
		case objgraph.String:
			if strings.HasPrefix(strings.ToLower(key), attr.ValuePrefix) {
				sizeFollowsValue = true
			}
		case objgraph.Array:
			if strings.EqualFold(key, attr.ValuePrefix) {
				sizeFollowsValue, valueArray = true, true
			}
		}
		return true
	})

	var err error
	obj.Range(func(key string, v objgraph.Value) bool {
		if sizeFollowsValue && strings.EqualFold(key, attr.Size) {
			return true
		}
		if valueArray && (strings.EqualFold(key, attr.IsArray) || strings.EqualFold(key, attr.Length)) {
			return true
		}
		switch t := v.(type) {
		case objgraph.String:
			setValue(g, key, []byte(t))
		case objgraph.Array:
			err = w.array(g, key, t)
		case *objgraph.Object:
			if w.onPath[t] {
				w.logger.Debug("Skipping cyclic property.", "group", path, "property", key)
				return true
			}
			if key == childKey {
				w.onPath[t] = true
				g.Child, err = w.forest(t, g.Child, path)
				delete(w.onPath, t)
				break
			}
			var text []byte
			if text, err = json.Marshal(t); err == nil {
				g.Set(key, text)
			}
		}
		if err != nil {
			err = fmt.Errorf("group %q, property %q: %w", path, key, err)
			return false
		}
		return true
	})
	return err
}

func (w *writer) array(g *attr.Group, key string, arr objgraph.Array) error {
	isValue := strings.EqualFold(key, attr.ValuePrefix)
	hadSize := isValue && g.HasIndexed(attr.Size)
	for i, ev := range arr {
		var b []byte
		switch t := ev.(type) {
		case objgraph.String:
			b = []byte(t)
		default:
			text, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
			b = text
		}
		g.SetIndexed(key, i, b)
		if isValue && (hadSize || bytes.IndexByte(b, 0) >= 0) {
			g.SetIndexed(attr.Size, i, []byte(strconv.Itoa(len(b))))
		}
	}
	g.TruncateIndexed(key, len(arr))
	if isValue {
		g.TruncateIndexed(attr.Size, len(arr))
		g.Set(attr.IsArray, []byte("true"))
		g.Set(attr.Length, []byte(strconv.Itoa(len(arr))))
	}
	return nil
}

func setValue(g *attr.Group, key string, b []byte) {
	g.Set(key, b)
	if !strings.HasPrefix(strings.ToLower(key), attr.ValuePrefix) {
		return
	}
	if bytes.IndexByte(b, 0) >= 0 || g.Get(attr.Size) != nil {
		g.Set(attr.Size, []byte(strconv.Itoa(len(b))))
	}
}
