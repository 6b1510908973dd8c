package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session: ask questions one after another",
		Args:  cobra.NoArgs,
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

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "auto-api> ",
				AutoComplete:    chatCompleter(a),
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
			})
			if err != nil {
				return fmt.Errorf("readline: %w", err)
			}
			defer rl.Close()

			pterm.Info.Printfln("%d tools loaded. Type /help for commands.", a.Registry().Len())
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if quit := runChatLine(cmd, a, strings.TrimSpace(line)); quit {
					return nil
				}
			}
		},
	}
}

func chatCompleter(a *assistant.Assistant) *readline.PrefixCompleter {
	toolItems := make([]readline.PrefixCompleterInterface, 0, a.Registry().Len())
	for _, name := range a.Registry().Names() {
		toolItems = append(toolItems, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("/help"),
		readline.PcItem("/tools", toolItems...),
		readline.PcItem("/history"),
		readline.PcItem("/quit"),
	)
}

// runChatLine handles one input line and reports whether the session ends.
func runChatLine(cmd *cobra.Command, a *assistant.Assistant, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(renderMarkdown(chatHelp))
	case "/tools":
		if len(fields) > 1 {
			t, err := a.Registry().Lookup(fields[1])
			if err != nil {
				pterm.Error.Println(err)
				return false
			}
			fmt.Println(renderMarkdown(toolMarkdown(t.Info(), t.Operation.RequestBody)))
			return false
		}
		pterm.Println(strings.Join(a.Registry().Names(), "\n"))
	case "/history":
		records, err := a.Recent(cmd.Context(), 10)
		if err != nil {
			pterm.Error.Println(err)
			return false
		}
		printHistory(records)
	default:
		answer, err := a.Ask(cmd.Context(), line)
		if err != nil {
			pterm.Error.Println(err)
			return false
		}
		fmt.Println(renderMarkdown(answerMarkdown(answer)))
	}
	return false
}

const chatHelp = `Type a request in plain language, for example *get account 7*.

| Command | Action |
|---|---|
| /tools [name] | list tools or describe one |
| /history | show recent queries |
| /quit | leave the session |
`
