package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/attrbridge/internal/attr"
	"github.com/vk/attrbridge/internal/bridge"
	"github.com/vk/attrbridge/internal/engine"
	"github.com/vk/attrbridge/internal/forestio"
)

// Run invokes a service function and prints the outputs forest after
// writeback. The outputs are printed for every status except LoadError.
func (a *App) Run(ctx context.Context, rc RunConfig) (bridge.Status, error) {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.")

	if err := rc.Validate(); err != nil {
		return bridge.LoadError, err
	}

	source, err := os.ReadFile(rc.ScriptPath)
	if err != nil {
		return bridge.LoadError, fmt.Errorf("%w: %w", engine.ErrScriptLoad, err)
	}

	req := bridge.Request{
		Function: rc.Function,
		Script:   engine.Script{Path: rc.ScriptPath, Source: source},
		Language: rc.Language,
	}
	if req.Config, err = readForest(rc.ConfigPath); err != nil {
		return bridge.LoadError, fmt.Errorf("failed to read config: %w", err)
	}
	if req.Inputs, err = readForest(rc.InputsPath); err != nil {
		return bridge.LoadError, fmt.Errorf("failed to read inputs: %w", err)
	}
	if req.Outputs, err = readForest(rc.OutputsPath); err != nil {
		return bridge.LoadError, fmt.Errorf("failed to read outputs: %w", err)
	}
	if req.Request, err = forestio.ParsePairs(rc.Request); err != nil {
		return bridge.LoadError, fmt.Errorf("failed to read request: %w", err)
	}
	a.logger.Debug("Service parameters loaded.",
		"conf_groups", len(req.Config),
		"input_groups", len(req.Inputs),
		"output_groups", len(req.Outputs),
		"request_attributes", len(req.Request),
	)

	res, err := a.bridge.Invoke(ctx, req)
	if res.Status == bridge.LoadError {
		return res.Status, err
	}
	if werr := forestio.Write(a.outW, res.Outputs, forestio.Format(rc.OutputFormat)); werr != nil {
		return res.Status, fmt.Errorf("failed to print outputs: %w", werr)
	}

	a.logger.Debug("App.Run method finished.", "status", res.Status)
	return res.Status, err
}

// readForest reads an optional forest file. No path means an empty forest.
func readForest(path string) (attr.Forest, error) {
	if path == "" {
		return nil, nil
	}
	return forestio.ReadFile(path)
}
