package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dshills/stagehand/internal/app"
)

func newStagesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stages <document.json>",
		Short: "List the stages of a document",
		Long: `Import a document and print one row per stage: its position, id,
selection, plugin count, navigation links and plugin types.`,
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
				// Navigation links are derived on export.
				if _, err := a.Export(ctx); err != nil {
					return err
				}
				stages, err := a.Stages(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), renderStages(stages))
				return err
			})
		},
	}
}

func renderStages(stages []app.StageSummary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Stage", "Selected", "Plugins", "Previous", "Next", "Types"})

	for i, st := range stages {
		selected := ""
		if st.Selected {
			selected = "*"
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			st.ID,
			selected,
			strconv.Itoa(st.Plugins),
			dash(st.Previous),
			dash(st.Next),
			strings.Join(st.Types, ", "),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
