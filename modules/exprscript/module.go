// Package exprscript is a script engine whose service functions are
// expr-lang expressions, one per function, stored as a YAML map:
//
//	hello: '{"Result": {"value": "Hello " + inputs.S.value}}'
//	check: 'inputs.S.value == "" ? 4 : 3'
//
// A map result is merged into outputs. A status result ("succeeded",
// "failed", 3, 4 or a bool) sets the outcome. Expressions see conf, inputs,
// outputs and request, the expr builtins, fail(msg) to raise an exception
// and query(value, jsonpath).
package exprscript

import (
	"github.com/vk/attrbridge/internal/engine"
	"github.com/vk/attrbridge/internal/registry"
)

// Language is the name the engine is registered under.
const Language = "expr"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the engine with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngine(Language, []string{".expr", ".expr.yaml", ".expr.yml"}, func() engine.Engine { return New() })
}
