package forestio

import (
	"fmt"
	"strings"

	"github.com/vk/attrbridge/internal/attr"
)

// ParsePairs turns "name=value" arguments into nodes, keeping their order.
func ParsePairs(pairs []string) ([]attr.Node, error) {
	nodes := make([]attr.Node, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid attribute %q: expected name=value", p)
		}
		nodes = append(nodes, attr.String(name, value))
	}
	return nodes, nil
}
