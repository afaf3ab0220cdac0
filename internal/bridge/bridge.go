// Package bridge is the entry point the kernel calls to run a service
// function: it converts the configuration, inputs, request and outputs
// forests into object graphs, invokes the function through the engine
// runtime of the script's language and writes the outputs graph back.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/attrbridge/internal/attr"
	"github.com/vk/attrbridge/internal/codec"
	"github.com/vk/attrbridge/internal/ctxlog"
	"github.com/vk/attrbridge/internal/engine"
	"github.com/vk/attrbridge/internal/registry"
)

// Status is the kernel's integer service status.
type Status int

const (
	// LoadError means the service could not be started: conversion, engine
	// initialization or script loading failed.
	LoadError Status = -1
	Succeeded Status = 3
	Failed    Status = 4
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case LoadError:
		return "load_error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// requestGroup names the group the request attributes are converted as.
const requestGroup = "request"

// Request describes one service invocation.
type Request struct {
	Config attr.Forest
	// Request holds the request attributes as one flat list.
	Request  []attr.Node
	Function string
	Script   engine.Script
	// Language selects the engine. When empty it is derived from
	// Script.Path.
	Language string
	Inputs   attr.Forest
	Outputs  attr.Forest
}

// Result is the outcome of an invocation. Outputs is the outputs forest
// after writeback, or the unchanged input forest when the function did not
// complete.
type Result struct {
	Status  Status
	Outputs attr.Forest
}

// Bridge invokes service functions.
type Bridge struct {
	registry  *registry.Registry
	converter *codec.Converter
}

// New creates a bridge over the engines of reg.
func New(reg *registry.Registry, converter *codec.Converter) *Bridge {
	return &Bridge{registry: reg, converter: converter}
}

// Invoke runs req.Function. The returned error explains any status other
// than Succeeded, except a function that reported failure itself.
func (b *Bridge) Invoke(ctx context.Context, req Request) (Result, error) {
	ctx = ctxlog.With(ctx, "function", req.Function, "script", req.Script.Path)
	logger := ctxlog.FromContext(ctx)
	res := Result{Status: LoadError, Outputs: req.Outputs}

	rt, err := b.registry.Resolve(req.Language, req.Script.Path)
	if err != nil {
		return res, fmt.Errorf("%w: %w", engine.ErrScriptLoad, err)
	}

	bindings, err := b.bind(ctx, req)
	if err != nil {
		logger.Error("Failed to convert service parameters.", "error", err)
		return res, err
	}

	var outcome engine.Outcome
	err = rt.Do(ctx, func(eng engine.Engine) error {
		prog, err := eng.Load(ctx, req.Script)
		if err != nil {
			return err
		}
		outcome, err = prog.Call(ctx, req.Function, bindings)
		return err
	})
	if err != nil {
		res.Status = statusOf(err)
		logger.Error("Service function did not complete.", "status", res.Status, "error", err)
		return res, err
	}

	outputs, err := b.converter.Writeback(ctx, bindings.Outputs, req.Outputs.Clone())
	if err != nil {
		res.Status = Failed
		return res, fmt.Errorf("failed to write back outputs: %w", err)
	}
	res.Outputs = outputs
	res.Status = Succeeded
	if outcome == engine.Failed {
		res.Status = Failed
	}
	logger.Info("Service function completed.", "status", res.Status)
	return res, nil
}

// bind converts the parameters. Conf, inputs and request are private to
// this invocation, so nothing an engine does to them is observed.
func (b *Bridge) bind(ctx context.Context, req Request) (*engine.Bindings, error) {
	conf, err := b.converter.ConvertForest(ctx, req.Config)
	if err != nil {
		return nil, fmt.Errorf("conf: %w", err)
	}
	inputs, err := b.converter.ConvertForest(ctx, req.Inputs)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	request, err := b.converter.ConvertGroup(ctx, attr.NewGroup(requestGroup, req.Request...))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	outputs, err := b.converter.ConvertForest(ctx, req.Outputs)
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	return &engine.Bindings{Conf: conf, Inputs: inputs, Request: request, Outputs: outputs}, nil
}

func statusOf(err error) Status {
	var convErr *codec.ConversionError
	switch {
	case errors.As(err, &convErr),
		errors.Is(err, engine.ErrInitFailed),
		errors.Is(err, engine.ErrScriptLoad):
		return LoadError
	}
	return Failed
}
