package main

import (
	"fmt"
	"path/filepath"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Parse an OpenAPI document and report the tools it yields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			var a *assistant.Assistant
			stop, err := startApp(cmd.Context(), cfg, fx.Populate(&a))
			if err != nil {
				return err
			}
			defer stop()

			// adjustments describe the configured document only
			if sameFile(args[0], cfg.OpenAPIFile) {
				if err := a.LoadAdjustments(cfg.AdjustmentsFile); err != nil {
					return err
				}
			}
			report, err := a.IngestFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
}

func printReport(report *assistant.IngestReport) {
	pterm.DefaultSection.Println(report.Title)
	pterm.Info.Printfln("Version %s, base URL %s", report.Version, orNone(report.BaseURL))

	data := pterm.TableData{{"Tool"}}
	for _, name := range report.Tools {
		data = append(data, []string{name})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	for _, w := range report.Warnings {
		pterm.Warning.Println(w)
	}
	pterm.Success.Println(fmt.Sprintf("%d tools from %s", len(report.Tools), report.Filename))
}

func sameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
