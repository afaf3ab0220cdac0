package objgraph

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Query evaluates a JSONPath expression against the graph and returns the
// matches as generic Go data.
func Query(v Value, path string) ([]any, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", path, err)
	}
	data, err := ToNative(v)
	if err != nil {
		return nil, err
	}
	return x.Get(data), nil
}
