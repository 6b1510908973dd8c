package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a plain-language request against the configured API",
		Args:  cobra.MinimumNArgs(1),
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

			spinner, _ := pterm.DefaultSpinner.Start("Resolving request")
			answer, err := a.Ask(cmd.Context(), strings.Join(args, " "))
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return err
			}
			fmt.Println(renderMarkdown(answerMarkdown(answer)))
			if answer.Failure != nil {
				return fmt.Errorf("request not answered: %s", answer.Failure.Kind)
			}
			return nil
		},
	}
}
