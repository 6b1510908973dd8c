package main

import (
	"fmt"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/history"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit     int
		documents bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent queries or ingested documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				pterm.Warning.Println("History is disabled")
				return nil
			}
			var a *assistant.Assistant
			stop, err := startApp(cmd.Context(), cfg, fx.Populate(&a))
			if err != nil {
				return err
			}
			defer stop()

			if documents {
				files, err := a.Documents(cmd.Context())
				if err != nil {
					return err
				}
				printDocuments(files)
				return nil
			}
			records, err := a.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of queries to show")
	cmd.Flags().BoolVar(&documents, "documents", false, "List ingested documents instead of queries")
	return cmd
}

func printHistory(records []history.QueryRecord) {
	if len(records) == 0 {
		pterm.Info.Println("No queries recorded")
		return
	}
	data := pterm.TableData{{"When", "Query", "Tool", "Status"}}
	for _, r := range records {
		status := r.Failure
		if r.StatusCode != nil {
			status = fmt.Sprint(*r.StatusCode)
		}
		data = append(data, []string{
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Query,
			r.ToolName,
			status,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printDocuments(files []history.UploadedFile) {
	if len(files) == 0 {
		pterm.Info.Println("No documents recorded")
		return
	}
	data := pterm.TableData{{"Uploaded", "File", "Title", "Version", "Tools"}}
	for _, f := range files {
		data = append(data, []string{
			f.UploadedAt.Format("2006-01-02 15:04:05"),
			f.Filename,
			f.Title,
			f.Version,
			fmt.Sprint(f.ToolCount),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
