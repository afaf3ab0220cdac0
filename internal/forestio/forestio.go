// Package forestio reads and writes attribute forests as JSON or YAML
// documents.
//
// A forest document is an ordered list of groups. In JSON:
//
//	[{"name": "S",
//	  "content": [{"name": "value", "value": "world"}, {"name": "dataType", "value": "string"}],
//	  "child": [{"name": "nested"}]}]
//
// YAML documents carry the same keys.
//
// Values that are not printable UTF-8 text are stored base64-encoded with
// `encoding: base64`.
package forestio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/vk/attrbridge/internal/attr"
)

// Format names a document syntax.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

const encodingBase64 = "base64"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown forest format %q: must be 'json' or 'yaml'", s)
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer forest format of %s: no file extension", path)
	}
	return ParseFormat(ext)
}

type fileNode struct {
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value" yaml:"value"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

type fileGroup struct {
	Name    string      `json:"name" yaml:"name"`
	Content []fileNode  `json:"content,omitempty" yaml:"content,omitempty"`
	Child   []fileGroup `json:"child,omitempty" yaml:"child,omitempty"`
}

// ReadFile loads a forest from a file, choosing the format by extension.
func ReadFile(path string) (attr.Forest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	forest, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read forest %s: %w", path, err)
	}
	return forest, nil
}

// Read decodes a forest document.
func Read(r io.Reader, format Format) (attr.Forest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var groups []fileGroup
	switch format {
	case JSON:
		if groups, err = decodeJSON(data); err != nil {
			return nil, err
		}
	case YAML:
		if err := yaml.Unmarshal(data, &groups); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown forest format %q", format)
	}
	return toForest(groups, "")
}

// Write encodes a forest document.
func Write(w io.Writer, forest attr.Forest, format Format) error {
	groups := fromForest(forest)
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(groups); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown forest format %q", format)
}

func toForest(groups []fileGroup, parent string) (attr.Forest, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	forest := make(attr.Forest, 0, len(groups))
	for i, fg := range groups {
		path := fg.Name
		if parent != "" {
			path = parent + "/" + fg.Name
		}
		if fg.Name == "" {
			return nil, fmt.Errorf("group #%d under %q has no name", i, parent)
		}
		g := &attr.Group{Name: fg.Name}
		for j, fn := range fg.Content {
			n, err := toNode(fn)
			if err != nil {
				return nil, fmt.Errorf("group %q, node #%d: %w", path, j, err)
			}
			g.Content = append(g.Content, n)
		}
		child, err := toForest(fg.Child, path)
		if err != nil {
			return nil, err
		}
		g.Child = child
		forest = append(forest, g)
	}
	return forest, nil
}

func toNode(fn fileNode) (attr.Node, error) {
	if fn.Name == "" {
		return attr.Node{}, fmt.Errorf("node has no name")
	}
	switch fn.Encoding {
	case "":
		return attr.String(fn.Name, fn.Value), nil
	case encodingBase64:
		b, err := base64.StdEncoding.DecodeString(fn.Value)
		if err != nil {
			return attr.Node{}, fmt.Errorf("node %q: invalid base64 value: %w", fn.Name, err)
		}
		return attr.Node{Name: fn.Name, Value: b}, nil
	}
	return attr.Node{}, fmt.Errorf("node %q: unknown encoding %q", fn.Name, fn.Encoding)
}

func fromForest(forest attr.Forest) []fileGroup {
	groups := make([]fileGroup, 0, len(forest))
	for _, g := range forest {
		fg := fileGroup{Name: g.Name, Child: fromForest(g.Child)}
		if len(fg.Child) == 0 {
			fg.Child = nil
		}
		for _, n := range g.Content {
			fg.Content = append(fg.Content, fromNode(n))
		}
		groups = append(groups, fg)
	}
	return groups
}

func fromNode(n attr.Node) fileNode {
	if isText(n.Value) {
		return fileNode{Name: n.Name, Value: string(n.Value)}
	}
	return fileNode{Name: n.Name, Value: base64.StdEncoding.EncodeToString(n.Value), Encoding: encodingBase64}
}

// isText reports whether b survives a round trip through JSON and YAML
// string scalars unchanged.
func isText(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}

// decodeJSON parses with ojg and maps the generic result onto the document
// structure, accepting non-string scalar values.
func decodeJSON(data []byte) ([]fileGroup, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	return jsonGroups(v, "$")
}

func jsonGroups(v any, where string) ([]fileGroup, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list of groups, got %T", where, v)
	}
	groups := make([]fileGroup, 0, len(list))
	for i, item := range list {
		at := fmt.Sprintf("%s[%d]", where, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected a group object, got %T", at, item)
		}
		fg := fileGroup{Name: scalarText(m["name"])}
		content, ok := m["content"].([]any)
		if !ok && m["content"] != nil {
			return nil, fmt.Errorf("%s.content: expected a list of nodes, got %T", at, m["content"])
		}
		for j, cn := range content {
			nm, ok := cn.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s.content[%d]: expected a node object, got %T", at, j, cn)
			}
			fg.Content = append(fg.Content, fileNode{
				Name:     scalarText(nm["name"]),
				Value:    scalarText(nm["value"]),
				Encoding: scalarText(nm["encoding"]),
			})
		}
		child, err := jsonGroups(m["child"], at+".child")
		if err != nil {
			return nil, err
		}
		fg.Child = child
		groups = append(groups, fg)
	}
	return groups, nil
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
