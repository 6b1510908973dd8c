package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const defaultAdjustmentsFile = "adjustments.yaml"

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Choose, rename and describe the published operations in a terminal UI",
		Long: `Edit opens the operations of the configured OpenAPI document in a terminal UI.
Operations can be removed, renamed and given new descriptions; the result is
written as an adjustments file that serve, ask and chat apply on ingestion.`,
		Args: cobra.NoArgs,
		RunE: runEditor,
	}
}

func runEditor(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	if err := cfg.RequireOpenAPIFile(); err != nil {
		return err
	}

	// Parse without adjustments so removed operations can be restored.
	openAPIParser := parser.NewOpenAPIParser(parser.NewAdjuster(), cfg)
	if err := openAPIParser.Init(cfg.OpenAPIFile, ""); err != nil {
		return fmt.Errorf("error parsing OpenAPI file: %w", err)
	}
	ops := openAPIParser.Operations()

	adjuster := parser.NewAdjuster()
	if err := adjuster.Load(cfg.AdjustmentsFile); err != nil {
		return fmt.Errorf("error loading adjustments file: %w", err)
	}

	exportPath := cfg.AdjustmentsFile
	if exportPath == "" {
		exportPath = defaultAdjustmentsFile
	}

	title := openAPIParser.Document().Title
	p := tea.NewProgram(tui.NewAppModel(title, ops, adjuster, exportPath), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	finalModel := m.(tui.AppModel)
	if !finalModel.IsFinished() {
		pterm.Info.Println("Nothing exported")
		return nil
	}
	kept := 0
	for _, op := range finalModel.GetOperationUpdates() {
		if !op.IsRemoved {
			kept++
		}
	}
	pterm.Info.Printfln("Processing complete. Kept %s operations out of %s.",
		pterm.LightGreen(kept),
		pterm.White(len(ops)))
	if path := finalModel.ExportedPath(); path != "" {
		pterm.Success.Printfln("Adjustments written to %s", path)
	}
	return nil
}
