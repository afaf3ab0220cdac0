package exprscript

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"
	"github.com/vk/attrbridge/internal/ctxlog"
	"github.com/vk/attrbridge/internal/engine"
	"github.com/vk/attrbridge/internal/objgraph"
	"gopkg.in/yaml.v3"
)

// Engine compiles and runs expr scripts.
type Engine struct {
	opts []expr.Option
}

// New returns an engine that still needs Init.
func New() *Engine {
	return &Engine{}
}

// Init builds the compile options shared by every script.
func (e *Engine) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.opts = []expr.Option{
		expr.Function("fail", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("fail expects 1 argument, got %d", len(params))
			}
			return nil, fmt.Errorf("%v", params[0])
		}),
		expr.Function("query", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("query expects 2 arguments, got %d", len(params))
			}
			path, ok := params[1].(string)
			if !ok {
				return nil, fmt.Errorf("query path must be a string, got %T", params[1])
			}
			x, err := jp.ParseString(path)
			if err != nil {
				return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
			}
			return x.Get(params[0]), nil
		}),
	}
	ctxlog.FromContext(ctx).Debug("expr engine initialized.")
	return nil
}

// Load parses the function map and compiles every expression.
func (e *Engine) Load(ctx context.Context, script engine.Script) (engine.Program, error) {
	var sources map[string]string
	if err := yaml.Unmarshal(script.Source, &sources); err != nil {
		return nil, fmt.Errorf("%w: failed to parse expr script %s: %w", engine.ErrScriptLoad, script.Path, err)
	}

	p := &program{path: script.Path, functions: make(map[string]*vm.Program, len(sources))}
	for name, src := range sources {
		prg, err := expr.Compile(src, e.opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to compile function '%s' in %s: %w", engine.ErrScriptLoad, name, script.Path, err)
		}
		p.functions[name] = prg
	}
	ctxlog.FromContext(ctx).Debug("expr script loaded.", "path", script.Path, "functions", len(p.functions))
	return p, nil
}

type program struct {
	path      string
	functions map[string]*vm.Program
}

// Call runs the function against the bindings.
func (p *program) Call(ctx context.Context, name string, b *engine.Bindings) (engine.Outcome, error) {
	prg, ok := p.functions[name]
	if !ok {
		return engine.Failed, fmt.Errorf("%w: function '%s' is not defined in %s", engine.ErrScriptLoad, name, p.path)
	}
	if err := ctx.Err(); err != nil {
		return engine.Failed, err
	}
	raise := func(err error) (engine.Outcome, error) {
		return engine.Failed, &engine.ScriptError{Function: name, Err: err}
	}

	env := map[string]any{
		"conf":    toEnv(b.Conf),
		"inputs":  toEnv(b.Inputs),
		"outputs": toEnv(b.Outputs),
		"request": toEnv(b.Request),
	}
	res, err := vm.Run(prg, env)
	if err != nil {
		return raise(err)
	}

	outcome, err := apply(res, b.Outputs)
	if err != nil {
		return raise(err)
	}
	ctxlog.FromContext(ctx).Debug("expr function evaluated.", "function", name, "outcome", outcome)
	return outcome, nil
}

// apply interprets a result: maps are merged into outputs, anything else is
// a status.
func apply(res any, outputs *objgraph.Object) (engine.Outcome, error) {
	switch t := res.(type) {
	case nil:
		return engine.Succeeded, nil
	case map[string]any:
		produced, err := objgraph.FromNative(t)
		if err != nil {
			return engine.Failed, fmt.Errorf("outputs: %w", err)
		}
		if obj, ok := produced.(*objgraph.Object); ok && outputs != nil {
			objgraph.Merge(outputs, obj)
		}
		return engine.Succeeded, nil
	case bool:
		if t {
			return engine.Succeeded, nil
		}
		return engine.Failed, nil
	case string:
		switch strings.ToLower(t) {
		case "succeeded":
			return engine.Succeeded, nil
		case "failed":
			return engine.Failed, nil
		}
		return engine.Failed, fmt.Errorf("unknown status %q", t)
	case int:
		return statusCode(int64(t))
	case int64:
		return statusCode(t)
	case float64:
		if t == math.Trunc(t) {
			return statusCode(int64(t))
		}
	}
	return engine.Failed, fmt.Errorf("unsupported result of type %T", res)
}

func statusCode(code int64) (engine.Outcome, error) {
	switch code {
	case 3:
		return engine.Succeeded, nil
	case 4:
		return engine.Failed, nil
	}
	return engine.Failed, fmt.Errorf("unknown status code %d", code)
}

// toEnv renders an object for the expression environment. An object met
// again on its own path becomes nil.
func toEnv(o *objgraph.Object) map[string]any {
	if o == nil {
		return map[string]any{}
	}
	return toEnvValue(o, map[*objgraph.Object]bool{}).(map[string]any)
}

func toEnvValue(v objgraph.Value, onPath map[*objgraph.Object]bool) any {
	switch t := v.(type) {
	case objgraph.String:
		return string(t)
	case objgraph.Array:
		out := make([]any, len(t))
		for i, ev := range t {
			out[i] = toEnvValue(ev, onPath)
		}
		return out
	case *objgraph.Object:
		if onPath[t] {
			return nil
		}
		onPath[t] = true
		defer delete(onPath, t)
		out := make(map[string]any, t.Len())
		t.Range(func(k string, pv objgraph.Value) bool {
			out[k] = toEnvValue(pv, onPath)
			return true
		})
		return out
	}
	return nil
}
