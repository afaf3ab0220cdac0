package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/attrbridge/internal/app"
)

func newConvertCommand(outW, errW io.Writer, g *globalFlags) *cobra.Command {
	var cc app.ConvertConfig
	cmd := &cobra.Command{
		Use:   "convert FOREST",
		Short: "Print the object graph of a forest file",
		Example: `  attrbridge convert inputs.yaml
  attrbridge convert inputs.yaml --query '$.S.value'
  attrbridge convert inputs.yaml -f cbor > inputs.cbor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			cc.ForestPath = args[0]
			if err := cc.Validate(); err != nil {
				return usageError(err)
			}
			if err := app.NewApp(outW, errW, cfg).Convert(cmd.Context(), cc); err != nil {
				return &ExitError{Code: ExitLoadError, Message: err.Error()}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cc.Query, "query", "q", "", "JSONPath applied to the object graph.")
	f.StringVarP(&cc.OutputFormat, "format", "f", "json", "Output format. Options: 'json' or 'cbor'. JSON replaces invalid UTF-8 with U+FFFD; use cbor for binary values.")
	return cmd
}
