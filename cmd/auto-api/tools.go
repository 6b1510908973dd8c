package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools [name]",
		Short: "List the tools of the configured document, or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			a, stop, err := loadAssistant(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer stop()

			reg := a.Registry()
			if len(args) == 1 {
				t, err := reg.Lookup(args[0])
				if err != nil {
					return err
				}
				fmt.Println(renderMarkdown(toolMarkdown(t.Info(), t.Operation.RequestBody)))
				return nil
			}

			data := pterm.TableData{{"Name", "Method", "Path", "Parameters", "Summary"}}
			for _, info := range reg.Manifest() {
				data = append(data, []string{
					info.Name,
					info.Method,
					info.Path,
					fmt.Sprint(len(info.Parameters)),
					info.Summary,
				})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return err
			}
			pterm.Info.Printfln("%d tools", reg.Len())
			return nil
		},
	}
}
