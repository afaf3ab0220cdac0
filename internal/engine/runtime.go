package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/attrbridge/internal/ctxlog"
)

// Runtime owns the single engine instance of a language for the lifetime
// of the process. The engine is created and initialized on first use; an
// initialization failure is permanent for this runtime.
type Runtime struct {
	name    string
	factory func() Engine

	once    sync.Once
	eng     Engine
	initErr error

	// mu serializes every use of the engine.
	mu sync.Mutex
}

// NewRuntime creates a runtime that builds its engine with factory.
func NewRuntime(name string, factory func() Engine) *Runtime {
	return &Runtime{name: name, factory: factory}
}

// Name returns the language name of the runtime.
func (r *Runtime) Name() string { return r.name }

// Do initializes the engine if needed and runs fn with exclusive access to
// it. Errors from a failed initialization wrap ErrInitFailed.
func (r *Runtime) Do(ctx context.Context, fn func(Engine) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.once.Do(func() {
		logger := ctxlog.FromContext(ctx)
		logger.Debug("Initializing script engine.", "engine", r.name)
		eng := r.factory()
		if err := eng.Init(ctx); err != nil {
			r.initErr = fmt.Errorf("%w: %s: %v", ErrInitFailed, r.name, err)
			logger.Error("Script engine initialization failed.", "engine", r.name, "error", err)
			return
		}
		r.eng = eng
	})
	if r.initErr != nil {
		return r.initErr
	}
	return fn(r.eng)
}
