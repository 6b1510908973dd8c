package assistant

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/brizzai/auto-api/internal/intent"
	"github.com/brizzai/auto-api/internal/invoker"
	"github.com/brizzai/auto-api/internal/llm"
	"go.uber.org/zap"
)

// explainBodyLimit caps the response text sent to the completer.
const explainBodyLimit = 4 << 10

const explainSystemPrompt = `Provide a human-friendly explanation of the API response.
Answer in a few short sentences of plain language. Mention the outcome first, then the most relevant values. Do not invent data that is not in the response.`

// Explain describes result in plain language. It falls back to a
// deterministic summary when no completer is configured or the call fails.
func (a *Assistant) Explain(ctx context.Context, query string, plan *intent.Plan, result *invoker.APIResult) string {
	if a.completer == nil {
		return Summarize(plan, result)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "User request: %s\n", query)
	fmt.Fprintf(&user, "Operation called: %s\n", plan.ToolName)
	if result.StatusCode != nil {
		fmt.Fprintf(&user, "HTTP status: %d\n", *result.StatusCode)
	}
	fmt.Fprintf(&user, "Response:\n%s", truncate(renderBody(result), explainBodyLimit))

	text, err := a.completer.Complete(ctx, llm.CompletionRequest{
		System:      explainSystemPrompt,
		User:        user.String(),
		Temperature: 0.3,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			a.log.Warn("Explanation failed, using summary", zap.Error(err))
		}
		return Summarize(plan, result)
	}
	return strings.TrimSpace(text)
}

// Summarize renders a deterministic one-paragraph description of result.
func Summarize(plan *intent.Plan, result *invoker.APIResult) string {
	tool := "the operation"
	if plan != nil && plan.ToolName != "" {
		tool = plan.ToolName
	}
	if result == nil {
		return fmt.Sprintf("%s produced no result.", tool)
	}
	if result.StatusCode == nil {
		if result.Timeout {
			return fmt.Sprintf("The call to %s timed out before the API answered.", tool)
		}
		return fmt.Sprintf("The call to %s failed before the API answered: %s", tool, result.Error)
	}

	status := *result.StatusCode
	var b strings.Builder
	outcome := "succeeded"
	if status >= 400 {
		outcome = "failed"
	}
	fmt.Fprintf(&b, "%s %s with status %d %s.", tool, outcome, status, http.StatusText(status))

	switch body := result.Body.(type) {
	case nil:
		b.WriteString(" The response was empty.")
	case map[string]any:
		keys := make([]string, 0, len(body))
		for k := range body {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, " The response is an object with fields: %s.", strings.Join(keys, ", "))
	case []any:
		fmt.Fprintf(&b, " The response is a list of %d item(s).", len(body))
	case string:
		fmt.Fprintf(&b, " The response says: %s", truncate(strings.TrimSpace(body), 200))
	default:
		fmt.Fprintf(&b, " The response is %v.", body)
	}
	return b.String()
}
