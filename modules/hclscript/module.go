// Package hclscript is a script engine whose service functions are HCL
// blocks evaluated with cty:
//
//	function "hello" {
//	  outputs = {
//	    Result = { value = "Hello ${inputs.S.value}" }
//	  }
//	  status = "succeeded"
//	}
//
// Expressions see the variables conf, inputs, outputs and request, plus a
// set of string and collection functions. A function may raise an exception
// by evaluating its error attribute to a non-null string.
package hclscript

import (
	"github.com/vk/attrbridge/internal/engine"
	"github.com/vk/attrbridge/internal/registry"
)

// Language is the name the engine is registered under.
const Language = "hcl"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the engine with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngine(Language, []string{".hcl"}, func() engine.Engine { return New() })
}
