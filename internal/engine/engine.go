// Package engine defines the contract between the bridge and a scripting
// engine, and the process-wide runtime that owns one engine instance.
//
// An engine is brought up at most once per process. Its Runtime serializes
// every use: engines are not required to be reentrant, and callers that need
// parallelism must provision one process per worker.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/attrbridge/internal/objgraph"
)

var (
	// ErrInitFailed reports that the engine's one-time bring-up failed.
	ErrInitFailed = errors.New("engine initialization failed")
	// ErrScriptLoad reports that a script could not be loaded or does not
	// define the requested function.
	ErrScriptLoad = errors.New("script load failed")
	// ErrScriptException matches every *ScriptError.
	ErrScriptException = errors.New("script exception")
)

// ScriptError is an exception that escaped the invoked function.
type ScriptError struct {
	Function string
	Err      error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("function %q raised: %v", e.Function, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrScriptException) true for any ScriptError.
func (e *ScriptError) Is(target error) bool { return target == ErrScriptException }

// Script is the source of a service implementation.
type Script struct {
	// Path is the origin of the source, used in diagnostics and to pick a
	// language by extension.
	Path   string
	Source []byte
}

// Bindings are the graphs exposed to the invoked function. Conf, Inputs and
// Request are private copies: changes made by the engine are discarded.
// Outputs is shared with the caller and read back after the call.
type Bindings struct {
	Conf    *objgraph.Object
	Inputs  *objgraph.Object
	Request *objgraph.Object
	Outputs *objgraph.Object
}

// Outcome is the result a function reported.
type Outcome int

const (
	Succeeded Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Failed {
		return "failed"
	}
	return "succeeded"
}

// Engine executes scripts in one language.
type Engine interface {
	// Init performs the process-wide bring-up. It is called once.
	Init(ctx context.Context) error
	// Load compiles a script. Errors wrap ErrScriptLoad.
	Load(ctx context.Context, script Script) (Program, error)
}

// Program is a loaded script.
type Program interface {
	// Call invokes a function. Exceptions are returned as *ScriptError.
	Call(ctx context.Context, function string, b *Bindings) (Outcome, error)
}
