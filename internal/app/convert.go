package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/attrbridge/internal/forestio"
	"github.com/vk/attrbridge/internal/objgraph"
)

// Convert prints the object graph of a forest file, or the matches of a
// JSONPath query against it.
func (a *App) Convert(ctx context.Context, cc ConvertConfig) error {
	ctx = a.context(ctx)
	if err := cc.Validate(); err != nil {
		return err
	}

	forest, err := forestio.ReadFile(cc.ForestPath)
	if err != nil {
		return err
	}
	graph, err := a.converter.ConvertForest(ctx, forest)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", cc.ForestPath, err)
	}
	a.logger.Debug("Forest converted.", "path", cc.ForestPath, "groups", len(forest))

	var out []byte
	switch {
	case cc.Query != "":
		matches, err := objgraph.Query(graph, cc.Query)
		if err != nil {
			return err
		}
		a.logger.Debug("Query evaluated.", "query", cc.Query, "matches", len(matches))
		out, err = json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode query results: %w", err)
		}
		out = append(out, '\n')
	case cc.OutputFormat == string(FormatCBOR):
		if out, err = objgraph.MarshalCBOR(graph); err != nil {
			return fmt.Errorf("failed to encode object graph: %w", err)
		}
	default:
		if out, err = json.MarshalIndent(graph, "", "  "); err != nil {
			return fmt.Errorf("failed to encode object graph: %w", err)
		}
		out = append(out, '\n')
	}

	_, err = a.outW.Write(out)
	return err
}
