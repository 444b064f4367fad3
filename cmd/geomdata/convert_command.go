package main

import (
	"github.com/spf13/cobra"

	"geomdata/pkg/basedata"
	"geomdata/pkg/geomio"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var precision int
	var strict bool

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Rewrite a geometry file in canonical form",
		Long: "Reads every time geometry of <input>, renumbers its steps densely and writes\n" +
			"the result to <output> with TimeStep attributes and the configured precision.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			reader, err := geomio.NewReader(cfg, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strict") {
				reader.Strict = strict
			}
			writer := geomio.NewWriter(cfg, logger)
			if precision > 0 {
				writer.Precision = precision
			}

			objects, _, err := reader.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data := make([]basedata.Data, len(objects))
			for i, obj := range objects {
				data[i] = obj
			}
			return writer.WriteFile(cmd.Context(), args[1], data...)
		},
	}

	cmd.Flags().IntVar(&precision, "precision", 0, "Significant digits per number (overrides codec.precision)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when the input needed any recovery (overrides codec.strict)")
	return cmd
}
