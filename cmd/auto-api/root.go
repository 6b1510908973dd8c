package main

import (
	"os"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type configKey struct{}

// newRootCmd builds the command tree. Configuration is loaded once the
// flags are parsed and handed to subcommands through the command context.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "auto-api",
		Short: "Talk to any REST API described by an OpenAPI document",
		Long: `auto-api ingests an OpenAPI/Swagger document, turns every operation into a
callable tool and answers plain-language requests by choosing an operation,
calling it and explaining the response. The tools are also served over MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
				pterm.Info.Println(config.GetVersionInfo())
				os.Exit(0)
			}

			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			// stdout belongs to the MCP stream in stdio mode.
			if cmd.Name() == "serve" && cfg.Server.Mode == config.ServerModeSTDIO {
				cfg.Logging.Stderr = true
			}
			if err := logger.InitLogger(&cfg.Logging); err != nil {
				return err
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newToolsCmd(),
		newAskCmd(),
		newChatCmd(),
		newEditCmd(),
		newHistoryCmd(),
	)
	return rootCmd
}
