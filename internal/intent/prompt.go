package intent

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/brizzai/auto-api/internal/registry"
	"github.com/invopop/jsonschema"
)

var (
	planSchemaOnce sync.Once
	planSchemaJSON string
)

// PlanSchema returns the JSON Schema of the object the model must answer with.
func PlanSchema() string {
	planSchemaOnce.Do(func() {
		r := new(jsonschema.Reflector)
		r.DoNotReference = true
		r.ExpandedStruct = true
		s := r.Reflect(&RawPlan{})
		s.Version = ""
		s.ID = ""
		data, err := json.Marshal(s)
		if err != nil {
			planSchemaJSON = `{"type":"object"}`
			return
		}
		planSchemaJSON = string(data)
	})
	return planSchemaJSON
}

const systemPrompt = `You map a user's request onto exactly one HTTP API operation.
You are given the available operations as JSON. Choose the single best operation and extract parameter values from the request.
Answer with ONLY one JSON object, no prose, matching this JSON Schema:
%s
Rules:
- "tool_name" must be one of the operation names listed, or null when no operation applies.
- "parameters" holds path and query parameter values keyed by their exact names.
- "request_body" holds the JSON body for operations that take one, using the body's field names; otherwise null.
- Use only values stated or clearly implied by the request. Do not invent identifiers.`

// manifestEntry is the compact view of a tool shown to the model.
type manifestEntry struct {
	Name        string   `json:"name"`
	Method      string   `json:"method"`
	URL         string   `json:"url"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Parameters  []string `json:"parameters,omitempty"`
	Body        string   `json:"request_body,omitempty"`
}

// BuildPrompt renders the system and user prompts for query over tools.
func BuildPrompt(query string, tools []registry.ToolInfo) (system, user string) {
	entries := make([]manifestEntry, 0, len(tools))
	for _, t := range tools {
		e := manifestEntry{
			Name:        t.Name,
			Method:      t.Method,
			URL:         t.URLTemplate,
			Summary:     t.Summary,
			Description: t.Description,
			Body:        t.Body,
		}
		for _, p := range t.Parameters {
			desc := fmt.Sprintf("%s (%s", p.Name, p.In)
			if p.Type != "" {
				desc += ", " + p.Type
			}
			if p.Required {
				desc += ", required"
			}
			e.Parameters = append(e.Parameters, desc+")")
		}
		entries = append(entries, e)
	}
	manifest, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		manifest = []byte("[]")
	}

	var b strings.Builder
	b.WriteString("Available operations:\n")
	b.Write(manifest)
	b.WriteString("\n\nRequest: ")
	b.WriteString(strings.TrimSpace(query))
	return fmt.Sprintf(systemPrompt, PlanSchema()), b.String()
}
