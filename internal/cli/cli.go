package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/attrbridge/internal/app"
)

// Exit codes used by the commands.
const (
	ExitFailed    = 1
	ExitUsage     = 2
	ExitLoadError = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logFormat string
	logLevel  string
	placement string
	typeTags  []string
}

func (g *globalFlags) config() (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		LogFormat: strings.ToLower(g.logFormat),
		LogLevel:  strings.ToLower(g.logLevel),
		Placement: strings.ToLower(g.placement),
		TypeTags:  g.typeTags,
	})
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI parameter validation complete.", "config", cfg)
	return cfg, nil
}

// NewRootCommand builds the attrbridge command tree. Results are written to
// outW, logs and diagnostics to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "attrbridge",
		Short: "Run scripted services over attribute forests",
		Long: `attrbridge converts attribute forests (configuration, inputs and outputs
of a processing service) into ordered object graphs, invokes a service
function written in HCL or expr with them and writes the outputs back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&g.placement, "placement", "parent", "Where converted groups are attached. Options: 'parent' or 'self'.")
	pf.StringSliceVar(&g.typeTags, "type-tag", nil, "Candidate type-tag names in priority order (default mimeType,dataType,CRS).")

	root.AddCommand(newRunCommand(outW, errW, g), newConvertCommand(outW, errW, g))
	return root
}
