package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/attrbridge/internal/app"
	"github.com/vk/attrbridge/internal/bridge"
)

func newRunCommand(outW, errW io.Writer, g *globalFlags) *cobra.Command {
	var rc app.RunConfig
	cmd := &cobra.Command{
		Use:   "run SCRIPT FUNCTION",
		Short: "Invoke a service function and print the outputs forest",
		Example: `  attrbridge run services/hello.hcl hello \
    --conf main.yaml --inputs inputs.json --outputs outputs.json \
    --request service=hello`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			rc.ScriptPath, rc.Function = args[0], args[1]

			a := app.NewApp(outW, errW, cfg)
			status, err := a.Run(cmd.Context(), rc)
			switch status {
			case bridge.Succeeded:
				return err
			case bridge.Failed:
				msg := "service function reported failure"
				if err != nil {
					msg = err.Error()
				}
				return &ExitError{Code: ExitFailed, Message: msg}
			default:
				msg := "service could not be loaded"
				if err != nil {
					msg = err.Error()
				}
				return &ExitError{Code: ExitLoadError, Message: msg}
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&rc.ConfigPath, "conf", "", "Path to the configuration forest (.json, .yaml).")
	f.StringVar(&rc.InputsPath, "inputs", "", "Path to the inputs forest (.json, .yaml).")
	f.StringVar(&rc.OutputsPath, "outputs", "", "Path to the outputs forest (.json, .yaml).")
	f.StringArrayVar(&rc.Request, "request", nil, "Request attribute as name=value. Repeatable.")
	f.StringVar(&rc.Language, "language", "", "Script engine to use instead of the one chosen by extension.")
	f.StringVarP(&rc.OutputFormat, "format", "f", "json", "Format of the printed outputs forest. Options: 'json' or 'yaml'.")
	return cmd
}
