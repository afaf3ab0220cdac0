package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/attrbridge/internal/codec"
	"github.com/vk/attrbridge/internal/forestio"
)

// Config holds the settings shared by every operation of an App instance.
type Config struct {
	LogFormat string
	LogLevel  string

	// Placement is "parent" (default) or "self".
	Placement string
	// TypeTags are the candidate type-tag names, in priority order. Empty
	// means mimeType, dataType, CRS.
	TypeTags []string
}

// NewConfig validates cfg and returns a copy with defaults applied.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if _, ok := codec.ParsePlacement(cfg.Placement); !ok {
		return nil, fmt.Errorf("invalid placement '%s': must be 'parent' or 'self'", cfg.Placement)
	}
	for _, tag := range cfg.TypeTags {
		if strings.TrimSpace(tag) == "" {
			return nil, errors.New("type tag names cannot be empty")
		}
	}
	return &cfg, nil
}

// RunConfig describes one service invocation.
type RunConfig struct {
	ScriptPath string
	Function   string
	// Language overrides the engine chosen by the script's extension.
	Language string

	ConfigPath  string
	InputsPath  string
	OutputsPath string
	// Request holds "name=value" request attributes.
	Request []string

	// OutputFormat is the format the outputs forest is printed in.
	OutputFormat string
}

// Validate checks the required fields and applies defaults.
func (c *RunConfig) Validate() error {
	if c.ScriptPath == "" {
		return errors.New("script path is a required configuration field and cannot be empty")
	}
	if c.Function == "" {
		return errors.New("function is a required configuration field and cannot be empty")
	}
	return validateFormat(&c.OutputFormat, forestio.JSON, forestio.YAML)
}

// ConvertConfig describes one forest conversion.
type ConvertConfig struct {
	ForestPath string
	// Query is an optional JSONPath applied to the object graph.
	Query string
	// OutputFormat is "json" or "cbor". Query results are always JSON.
	OutputFormat string
}

// FormatCBOR selects the CBOR encoding of the object graph.
const FormatCBOR forestio.Format = "cbor"

// Validate checks the required fields and applies defaults.
func (c *ConvertConfig) Validate() error {
	if c.ForestPath == "" {
		return errors.New("forest path is a required configuration field and cannot be empty")
	}
	if err := validateFormat(&c.OutputFormat, forestio.JSON, FormatCBOR); err != nil {
		return err
	}
	if c.Query != "" && c.OutputFormat != string(forestio.JSON) {
		return errors.New("query results can only be printed as json")
	}
	return nil
}

func validateFormat(format *string, allowed ...forestio.Format) error {
	if *format == "" {
		*format = string(allowed[0])
		return nil
	}
	*format = strings.ToLower(*format)
	names := make([]string, len(allowed))
	for i, f := range allowed {
		if *format == string(f) {
			return nil
		}
		names[i] = "'" + string(f) + "'"
	}
	return fmt.Errorf("invalid output format '%s': must be one of %s", *format, strings.Join(names, ", "))
}
