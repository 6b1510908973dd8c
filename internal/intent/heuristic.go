package intent

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/schema"
)

// OperationSource gives the heuristic extractor access to full operations,
// including body schemas the manifest only summarizes.
type OperationSource interface {
	Get(name string) (*registry.Tool, bool)
}

// HeuristicExtractor picks a tool by keyword scoring and pulls values out of
// the query with patterns. It needs no external service.
type HeuristicExtractor struct {
	source OperationSource
}

// NewHeuristicExtractor creates a heuristic extractor over source.
func NewHeuristicExtractor(source OperationSource) *HeuristicExtractor {
	return &HeuristicExtractor{source: source}
}

var verbMethods = map[string][]string{
	"get": {"GET"}, "fetch": {"GET"}, "show": {"GET"}, "list": {"GET"}, "find": {"GET"},
	"retrieve": {"GET"}, "read": {"GET"}, "view": {"GET"}, "search": {"GET"}, "lookup": {"GET"},
	"create": {"POST"}, "add": {"POST"}, "new": {"POST"}, "register": {"POST"}, "make": {"POST"}, "open": {"POST"},
	"update": {"PUT", "PATCH"}, "change": {"PUT", "PATCH"}, "modify": {"PUT", "PATCH"}, "edit": {"PUT", "PATCH"},
	"set": {"PUT", "PATCH"}, "rename": {"PUT", "PATCH"}, "replace": {"PUT"},
	"delete": {"DELETE"}, "remove": {"DELETE"}, "close": {"DELETE"}, "cancel": {"DELETE"}, "destroy": {"DELETE"},
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "for": true, "with": true, "to": true,
	"in": true, "on": true, "by": true, "my": true, "me": true, "please": true, "and": true,
	"named": true, "called": true, "all": true, "id": true, "is": true, "from": true,
}

var (
	wordRe      = regexp.MustCompile(`[A-Za-z]+|[0-9]+`)
	camelRe     = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	numberRe    = regexp.MustCompile(`\b-?\d+(?:\.\d+)?\b`)
	assignRe    = regexp.MustCompile(`\b([A-Za-z_][\w-]*)\s*(?:=|:)\s*("([^"]*)"|'([^']*)'|[^\s,;]+)`)
	namedRe     = regexp.MustCompile(`\b(?:named|called)\s+(?:"([^"]+)"|'([^']+)'|([A-Z0-9][\w&.-]*(?:\s+[A-Z0-9][\w&.-]*)*))`)
	locationRe  = regexp.MustCompile(`\bin\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-z][a-zA-Z]*)*)(?:,?\s+([A-Z]{2}))?\b`)
	emailRe     = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	quotedRe    = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	nonAlnumRe  = regexp.MustCompile(`[^a-z0-9]+`)
	placeholder = regexp.MustCompile(`\{[^{}]+\}`)
)

// Extract scores every tool against the query and extracts values for the best one.
func (e *HeuristicExtractor) Extract(_ context.Context, query string, tools []registry.ToolInfo) (*RawPlan, error) {
	if len(tools) == 0 {
		return nil, ErrNoTools
	}
	best, ok := selectTool(query, tools)
	if !ok {
		return nil, ErrNoToolMatched
	}

	var op parser.Operation
	if e.source != nil {
		if tool, found := e.source.Get(best.Name); found {
			op = tool.Operation
		}
	}
	if op.ID == "" {
		op = operationFromInfo(best)
	}
	return extractValues(query, op), nil
}

// selectTool returns the highest scoring tool; ties go to the first name.
func selectTool(query string, tools []registry.ToolInfo) (registry.ToolInfo, bool) {
	words := tokens(query)
	methods := map[string]bool{}
	for _, w := range words {
		for _, m := range verbMethods[w] {
			methods[m] = true
		}
	}
	hasNumber := numberRe.MatchString(stripAssignments(query))

	sorted := append([]registry.ToolInfo(nil), tools...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	bestScore := 0
	var best registry.ToolInfo
	found := false
	for _, t := range sorted {
		score := scoreTool(t, words, methods, hasNumber)
		if score > bestScore {
			bestScore, best, found = score, t, true
		}
	}
	return best, found
}

func scoreTool(t registry.ToolInfo, words []string, methods map[string]bool, hasNumber bool) int {
	pathWords := map[string]bool{}
	for _, w := range tokens(placeholder.ReplaceAllString(t.Path, " ")) {
		pathWords[w] = true
	}
	textWords := map[string]bool{}
	for _, w := range tokens(t.Name + " " + t.Summary + " " + t.Description) {
		textWords[w] = true
	}
	paramWords := map[string]bool{}
	for _, p := range t.Parameters {
		for _, w := range tokens(p.Name) {
			paramWords[w] = true
		}
	}

	topical := 0
	for _, w := range words {
		if stopWords[w] || verbMethods[w] != nil {
			continue
		}
		switch {
		case pathWords[w], paramWords[w]:
			topical += 2
		case textWords[w]:
			topical++
		}
	}
	if topical == 0 {
		return 0
	}

	score := topical
	if methods[t.Method] {
		score += 3
	}
	hasPathParam := strings.Contains(t.Path, "{")
	switch {
	case hasPathParam && hasNumber:
		score++
	case hasPathParam && !hasNumber:
		score--
	}
	return score
}

// tokens lowercases, splits camelCase and snake_case and singularizes.
func tokens(s string) []string {
	s = camelRe.ReplaceAllString(s, "$1 $2")
	raw := wordRe.FindAllString(s, -1)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		out = append(out, singular(strings.ToLower(w)))
	}
	return out
}

func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// field is a value slot: a parameter or a top-level body property.
type field struct {
	name   string
	inBody bool
	typ    string
	format string
}

func normalizeName(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
}

func extractValues(query string, op parser.Operation) *RawPlan {
	plan := &RawPlan{ToolName: op.ID, Parameters: map[string]any{}}
	body := map[string]any{}

	var fields []field
	for _, p := range op.Parameters {
		fields = append(fields, field{name: p.Name, typ: p.Type()})
	}
	if op.RequestBody != nil {
		for _, name := range op.RequestBody.PropertyNames() {
			prop := op.RequestBody.Properties[name]
			f := field{name: name, inBody: true}
			if prop != nil {
				f.typ, f.format = prop.Type, prop.Format
			}
			fields = append(fields, f)
		}
	}
	lookup := func(name string) (field, bool) {
		want := normalizeName(name)
		for _, f := range fields {
			if normalizeName(f.name) == want {
				return f, true
			}
		}
		return field{}, false
	}
	filled := map[string]bool{}
	set := func(f field, v any) {
		if filled[f.name] {
			return
		}
		filled[f.name] = true
		if f.inBody {
			body[f.name] = v
		} else {
			plan.Parameters[f.name] = v
		}
	}

	// explicit name=value and name: value
	for _, m := range assignRe.FindAllStringSubmatch(query, -1) {
		if f, ok := lookup(m[1]); ok {
			set(f, firstNonEmpty(m[3], m[4], m[2]))
		}
	}

	if m := namedRe.FindStringSubmatch(query); m != nil {
		if f, ok := lookup("name"); ok {
			set(f, firstNonEmpty(m[1], m[2], m[3]))
		}
	}

	if m := locationRe.FindStringSubmatch(query); m != nil {
		if f, ok := lookup("city"); ok {
			set(f, m[1])
		}
		if m[2] != "" {
			if f, ok := lookup("state"); ok {
				set(f, m[2])
			}
		}
	}

	if email := emailRe.FindString(query); email != "" {
		for _, f := range fields {
			if f.format == "email" || strings.Contains(strings.ToLower(f.name), "email") {
				set(f, email)
				break
			}
		}
	}

	// bare numbers fill path parameters in order, then numeric fields
	numbers := numberRe.FindAllString(stripAssignments(query), -1)
	for _, name := range parser.PathParams(op.Path) {
		if len(numbers) == 0 {
			break
		}
		if f, ok := lookup(name); ok && !filled[f.name] {
			set(f, numbers[0])
			numbers = numbers[1:]
		}
	}
	for _, f := range fields {
		if len(numbers) == 0 {
			break
		}
		if (f.typ == "integer" || f.typ == "number") && !filled[f.name] {
			set(f, numbers[0])
			numbers = numbers[1:]
		}
	}

	// leftover quoted strings fill string fields in declaration order
	for _, m := range quotedRe.FindAllStringSubmatch(stripAssignments(query), -1) {
		v := firstNonEmpty(m[1], m[2])
		for _, f := range fields {
			if f.typ == "string" && !filled[f.name] && !valueUsed(plan, body, v) {
				set(f, v)
				break
			}
		}
	}

	if len(body) > 0 {
		plan.RequestBody = body
	}
	return plan
}

func stripAssignments(query string) string {
	return assignRe.ReplaceAllString(query, " ")
}

func valueUsed(plan *RawPlan, body map[string]any, v string) bool {
	for _, existing := range plan.Parameters {
		if existing == v {
			return true
		}
	}
	for _, existing := range body {
		if existing == v {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// operationFromInfo rebuilds the parameter list of a manifest entry when the
// full operation is not available.
func operationFromInfo(t registry.ToolInfo) parser.Operation {
	op := parser.Operation{ID: t.Name, Method: t.Method, Path: t.Path, URLTemplate: t.URLTemplate}
	for _, p := range t.Parameters {
		param := parser.Parameter{Name: p.Name, In: parser.ParseLocation(p.In), Required: p.Required}
		if p.Type != "" {
			param.Schema = &schema.Node{Type: p.Type}
		}
		op.Parameters = append(op.Parameters, param)
	}
	return op
}
