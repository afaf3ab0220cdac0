package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/attrbridge/internal/attr"
	"github.com/vk/attrbridge/internal/bridge"
	"github.com/vk/attrbridge/internal/codec"
	"github.com/vk/attrbridge/internal/ctxlog"
	"github.com/vk/attrbridge/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	registry  *registry.Registry
	converter *codec.Converter
	bridge    *bridge.Bridge
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. It returns a fully initialized App instance,
// including its own isolated logger and registry.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All engine modules registered.", "count", len(modules), "languages", reg.Languages())

	// NewConfig has already validated the placement.
	placement, _ := codec.ParsePlacement(cfg.Placement)
	opts := []codec.Option{codec.WithPlacement(placement)}
	if len(cfg.TypeTags) > 0 {
		opts = append(opts, codec.WithResolver(attr.CandidateResolver(cfg.TypeTags)))
	}
	converter := codec.New(opts...)
	logger.Debug("Converter configured.", "placement", placement, "type_tags", cfg.TypeTags)

	return &App{
		outW:      outW,
		logger:    logger,
		registry:  reg,
		converter: converter,
		bridge:    bridge.New(reg, converter),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
