package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/stagehand/internal/app"
)

func newRoundtripCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "roundtrip <document.json>",
		Short: "Import a document and export the rebuilt scene",
		Long: `Import a document, rebuild its stages and write the exported document.

The export recomputes navigation links and the media manifest, so the
output is the canonical form of the input.

Examples:
  stagehand roundtrip lesson.json
  stagehand roundtrip lesson.json -o lesson.canonical.json
  stagehand roundtrip --plugin-dir ./plugins lesson.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, flags, func(ctx context.Context, a *app.Application) error {
				if err := a.Import(ctx, args[0], data); err != nil {
					return err
				}
				out, err := a.Export(ctx)
				if err != nil {
					return err
				}
				if output == "" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
					return err
				}
				return os.WriteFile(output, append(out, '\n'), 0o644)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")
	return cmd
}
