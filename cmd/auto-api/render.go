package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/schema"
	"github.com/charmbracelet/glamour"
)

// renderMarkdown renders md for the terminal, falling back to the raw text
// when no renderer can be built.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// answerMarkdown formats an answer: the explanation, the call that was made
// and the response body.
func answerMarkdown(answer *assistant.Answer) string {
	var b strings.Builder
	if answer.Failure != nil {
		fmt.Fprintf(&b, "**Could not answer** (%s)\n\n%s\n", answer.Failure.Kind, answer.Failure.Message)
		if answer.Plan != nil {
			fmt.Fprintf(&b, "\nChosen operation: `%s`\n", answer.Plan.ToolName)
		}
		return b.String()
	}

	if answer.Explanation != "" {
		b.WriteString(answer.Explanation)
		b.WriteString("\n\n")
	}
	if answer.Plan != nil {
		fmt.Fprintf(&b, "**Operation:** `%s`", answer.Plan.ToolName)
		if len(answer.Plan.Parameters) > 0 {
			fmt.Fprintf(&b, " with `%s`", compactJSON(answer.Plan.Parameters))
		}
		b.WriteString("\n\n")
		for _, w := range answer.Plan.Warnings {
			fmt.Fprintf(&b, "- warning: %s\n", w.String())
		}
	}
	if answer.Result != nil {
		if answer.Result.StatusCode != nil {
			fmt.Fprintf(&b, "**Status:** %d (%s)\n\n", *answer.Result.StatusCode, answer.Result.Duration)
		} else {
			fmt.Fprintf(&b, "**Error:** %s\n\n", answer.Result.Error)
		}
		if body := prettyBody(answer.Result.Body); body != "" {
			b.WriteString("```json\n")
			b.WriteString(body)
			b.WriteString("\n```\n")
		}
	}
	return b.String()
}

// toolMarkdown describes one tool with its parameters and a sample body.
func toolMarkdown(info registry.ToolInfo, body *schema.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n`%s %s`\n\n", info.Name, info.Method, info.Path)
	if info.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", info.Summary)
	}
	if info.Description != "" && info.Description != info.Summary {
		fmt.Fprintf(&b, "%s\n\n", info.Description)
	}
	if len(info.Parameters) > 0 {
		b.WriteString("| Name | In | Type | Required | Description |\n|---|---|---|---|---|\n")
		for _, p := range info.Parameters {
			fmt.Fprintf(&b, "| %s | %s | %s | %t | %s |\n", p.Name, p.In, p.Type, p.Required, p.Description)
		}
		b.WriteString("\n")
	}
	if body != nil && !body.IsEmpty() {
		b.WriteString("## Request body\n\n```json\n")
		b.WriteString(prettyBody(schema.Sample(body)))
		b.WriteString("\n```\n")
	}
	return b.String()
}

func prettyBody(body any) string {
	switch v := body.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
