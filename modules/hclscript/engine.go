package hclscript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/attrbridge/internal/ctxlog"
	"github.com/vk/attrbridge/internal/engine"
	"github.com/vk/attrbridge/internal/objgraph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Engine evaluates HCL service scripts.
type Engine struct {
	functions map[string]function.Function
}

// New returns an engine that still needs Init.
func New() *Engine {
	return &Engine{}
}

// scriptFile decodes every top-level block of a script.
type scriptFile struct {
	Functions []*functionBlock `hcl:"function,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type functionBlock struct {
	Name    string         `hcl:"name,label"`
	Outputs hcl.Expression `hcl:"outputs,optional"`
	Status  hcl.Expression `hcl:"status,optional"`
	Error   hcl.Expression `hcl:"error,optional"`
}

// Init builds the function table shared by every script.
func (e *Engine) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.functions = map[string]function.Function{
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
		"format":     stdlib.FormatFunc,
		"join":       stdlib.JoinFunc,
		"split":      stdlib.SplitFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"replace":    stdlib.ReplaceFunc,
		"substr":     stdlib.SubstrFunc,
		"length":     stdlib.LengthFunc,
		"concat":     stdlib.ConcatFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"jsondecode": stdlib.JSONDecodeFunc,
		"try":        tryfunc.TryFunc,
		"can":        tryfunc.CanFunc,
	}
	ctxlog.FromContext(ctx).Debug("HCL engine initialized.", "functions", len(e.functions))
	return nil
}

// Load parses a script and indexes its function blocks by name.
func (e *Engine) Load(ctx context.Context, script engine.Script) (engine.Program, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclparse.NewParser().ParseHCL(script.Source, script.Path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL script %s: %w", engine.ErrScriptLoad, script.Path, diags)
	}

	var root scriptFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL script %s: %w", engine.ErrScriptLoad, script.Path, diags)
	}

	p := &program{engine: e, path: script.Path, functions: make(map[string]*functionBlock, len(root.Functions))}
	for _, fn := range root.Functions {
		if _, exists := p.functions[fn.Name]; exists {
			return nil, fmt.Errorf("%w: function '%s' is defined more than once in %s", engine.ErrScriptLoad, fn.Name, script.Path)
		}
		p.functions[fn.Name] = fn
	}
	logger.Debug("HCL script loaded.", "path", script.Path, "functions", len(p.functions))
	return p, nil
}

type program struct {
	engine    *Engine
	path      string
	functions map[string]*functionBlock
}

// Call evaluates the function block. Its outputs object is merged into
// b.Outputs before the status is read.
func (p *program) Call(ctx context.Context, name string, b *engine.Bindings) (engine.Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	fn, ok := p.functions[name]
	if !ok {
		return engine.Failed, fmt.Errorf("%w: function '%s' is not defined in %s", engine.ErrScriptLoad, name, p.path)
	}
	raise := func(err error) (engine.Outcome, error) {
		return engine.Failed, &engine.ScriptError{Function: name, Err: err}
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"conf":    objectToCty(b.Conf),
			"inputs":  objectToCty(b.Inputs),
			"outputs": objectToCty(b.Outputs),
			"request": objectToCty(b.Request),
		},
		Functions: p.engine.functions,
	}

	if isExprDefined(ctx, fn.Error, "error") {
		val, diags := fn.Error.Value(evalCtx)
		if diags.HasErrors() {
			return raise(diags)
		}
		if !val.IsNull() {
			if !val.IsKnown() || val.Type() != cty.String {
				return raise(fmt.Errorf("error must be a string, got %s", val.Type().FriendlyName()))
			}
			return raise(errors.New(val.AsString()))
		}
	}

	if isExprDefined(ctx, fn.Outputs, "outputs") {
		val, diags := fn.Outputs.Value(evalCtx)
		if diags.HasErrors() {
			return raise(diags)
		}
		produced, err := fromCty(val)
		if err != nil {
			return raise(fmt.Errorf("outputs: %w", err))
		}
		switch t := produced.(type) {
		case nil:
		case *objgraph.Object:
			if b.Outputs != nil {
				objgraph.Merge(b.Outputs, t)
			}
		default:
			return raise(fmt.Errorf("outputs must be an object, got %s", val.Type().FriendlyName()))
		}
	}

	outcome := engine.Succeeded
	if isExprDefined(ctx, fn.Status, "status") {
		val, diags := fn.Status.Value(evalCtx)
		if diags.HasErrors() {
			return raise(diags)
		}
		var err error
		if outcome, err = parseStatus(val); err != nil {
			return raise(err)
		}
	}
	logger.Debug("HCL function evaluated.", "function", name, "outcome", outcome)
	return outcome, nil
}

// parseStatus accepts "succeeded"/"failed" or the kernel codes 3 and 4.
func parseStatus(val cty.Value) (engine.Outcome, error) {
	if val.IsNull() {
		return engine.Succeeded, nil
	}
	if !val.IsKnown() {
		return engine.Failed, errors.New("status is not known")
	}
	switch val.Type() {
	case cty.String:
		switch strings.ToLower(val.AsString()) {
		case "succeeded":
			return engine.Succeeded, nil
		case "failed":
			return engine.Failed, nil
		}
		return engine.Failed, fmt.Errorf("unknown status %q", val.AsString())
	case cty.Number:
		code, acc := val.AsBigFloat().Int64()
		if acc == 0 {
			switch code {
			case 3:
				return engine.Succeeded, nil
			case 4:
				return engine.Failed, nil
			}
		}
		return engine.Failed, fmt.Errorf("unknown status code %s", val.AsBigFloat().Text('f', -1))
	}
	return engine.Failed, fmt.Errorf("status must be a string or a number, got %s", val.Type().FriendlyName())
}

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder fills omitted optional attributes with zero-width
// expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}
