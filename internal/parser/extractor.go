package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/schema"
	"go.uber.org/zap"
)

// httpMethods are the verbs treated as operations, in extraction order.
var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

var jsonMediaTypes = []string{"application/json"}
var yamlMediaTypes = []string{"application/yaml", "application/x-yaml", "text/yaml"}

// maxRefHops bounds $ref chains between parameter, body and response components.
const maxRefHops = 8

// Extractor walks a raw OpenAPI 3 document and emits one Operation per
// (path, method).
type Extractor struct {
	resolver schema.Resolver
	baseURL  string
	log      *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithBaseURL replaces the base URL declared by the document's servers.
func WithBaseURL(baseURL string) ExtractorOption {
	return func(e *Extractor) {
		e.baseURL = baseURL
	}
}

// WithMaxSchemaDepth bounds schema nesting during resolution.
func WithMaxSchemaDepth(depth int) ExtractorOption {
	return func(e *Extractor) {
		e.resolver.MaxDepth = depth
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{log: logger.Named("extractor")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// extraction carries per-document state.
type extraction struct {
	*Extractor
	components map[string]any
	schemas    schema.Components
	doc        *Document
	ids        map[string]int
}

// Extract converts a raw document into a Document. Only a missing root is
// fatal; malformed paths or operations are skipped and reported in
// Document.Warnings.
func (e *Extractor) Extract(root map[string]any) (*Document, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	components, _ := root["components"].(map[string]any)
	x := &extraction{
		Extractor:  e,
		components: components,
		schemas:    schema.ComponentsFromValue(components),
		doc:        &Document{},
		ids:        map[string]int{},
	}

	if info, ok := root["info"].(map[string]any); ok {
		x.doc.Title, _ = info["title"].(string)
		x.doc.Version = fmt.Sprint(valueOr(info["version"], ""))
	}

	x.doc.BaseURL = e.baseURL
	if x.doc.BaseURL == "" {
		x.doc.BaseURL = serverURL(root["servers"])
	}

	paths, ok := root["paths"].(map[string]any)
	if !ok {
		x.warn("document has no paths mapping")
		return x.doc, nil
	}

	pathKeys := make([]string, 0, len(paths))
	for p := range paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	for _, path := range pathKeys {
		item, ok := paths[path].(map[string]any)
		if !ok {
			x.warn(fmt.Sprintf("path %s is not a mapping, skipped", path))
			continue
		}
		x.extractPath(path, item)
	}

	e.log.Info("Extracted operations",
		zap.String("title", x.doc.Title),
		zap.Int("operations", len(x.doc.Operations)),
		zap.Int("warnings", len(x.doc.Warnings)),
	)
	return x.doc, nil
}

func (x *extraction) warn(msg string, fields ...zap.Field) {
	x.doc.Warnings = append(x.doc.Warnings, msg)
	x.log.Warn(msg, fields...)
}

func (x *extraction) extractPath(path string, item map[string]any) {
	pathParams := x.rawParameters(item["parameters"], path)

	for _, method := range httpMethods {
		key, raw, found := lookupFold(item, method)
		if !found {
			continue
		}
		opRaw, ok := firstMapping(raw)
		if !ok {
			x.warn(fmt.Sprintf("%s %s is not a mapping, skipped", method, path), zap.String("key", key))
			continue
		}
		x.doc.Operations = append(x.doc.Operations, x.extractOperation(path, method, opRaw, pathParams))
	}
}

func (x *extraction) extractOperation(path, method string, raw map[string]any, pathParams []map[string]any) Operation {
	operationID, _ := raw["operationId"].(string)
	op := Operation{
		ID:          x.uniqueID(operationIdentifier(operationID, method, path)),
		Method:      method,
		Path:        path,
		URLTemplate: joinURL(x.doc.BaseURL, path),
		Responses:   map[string]Response{},
	}
	op.Summary, _ = raw["summary"].(string)
	op.Description, _ = raw["description"].(string)
	if tags, ok := raw["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				op.Tags = append(op.Tags, s)
			}
		}
	}

	merged := mergeParameters(pathParams, x.rawParameters(raw["parameters"], op.ID))
	op.Parameters = x.buildParameters(op.ID, merged)
	op.Parameters = addImplicitPathParams(path, op.Parameters)

	x.extractRequestBody(&op, raw["requestBody"])
	x.extractResponses(&op, raw["responses"])
	return op
}

func (x *extraction) uniqueID(id string) string {
	x.ids[id]++
	if n := x.ids[id]; n > 1 {
		return fmt.Sprintf("%s_%d", id, n)
	}
	return id
}

// rawParameters returns the parameter mappings of a list, following
// #/components/parameters references. Malformed entries are dropped.
func (x *extraction) rawParameters(raw any, owner string) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		if raw != nil {
			x.warn(fmt.Sprintf("%s: parameters is not a list, ignored", owner))
		}
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		m, ok := x.followRef(entry, "parameters")
		if !ok {
			x.warn(fmt.Sprintf("%s: malformed parameter skipped", owner))
			continue
		}
		if name, _ := m["name"].(string); name == "" {
			x.warn(fmt.Sprintf("%s: parameter without a name skipped", owner))
			continue
		}
		out = append(out, m)
	}
	return out
}

func parameterKey(m map[string]any) string {
	name, _ := m["name"].(string)
	in, _ := m["in"].(string)
	return string(ParseLocation(in)) + ":" + name
}

// mergeParameters overlays operation-level parameters on path-level ones.
// A shared (name, in) merges field by field with the operation's fields
// winning; anything else is appended.
func mergeParameters(pathLevel, opLevel []map[string]any) []map[string]any {
	merged := make([]map[string]any, 0, len(pathLevel)+len(opLevel))
	index := map[string]int{}
	add := func(p map[string]any) {
		key := parameterKey(p)
		if i, ok := index[key]; ok {
			for field, v := range p {
				merged[i][field] = v
			}
			return
		}
		cp := make(map[string]any, len(p))
		for field, v := range p {
			cp[field] = v
		}
		index[key] = len(merged)
		merged = append(merged, cp)
	}
	for _, p := range pathLevel {
		add(p)
	}
	for _, p := range opLevel {
		add(p)
	}
	return merged
}

func (x *extraction) buildParameters(opID string, raw []map[string]any) []Parameter {
	params := make([]Parameter, 0, len(raw))
	for _, m := range raw {
		in, _ := m["in"].(string)
		p := Parameter{
			In: ParseLocation(in),
		}
		p.Name, _ = m["name"].(string)
		p.Description, _ = m["description"].(string)
		p.Required, _ = m["required"].(bool)
		if p.In == LocationPath {
			p.Required = true
		}
		if s, ok := m["schema"]; ok {
			p.Schema = x.resolveSchema(opID, "parameter "+p.Name, schema.FromValue(s))
		} else if t, ok := m["type"].(string); ok {
			// tolerate 2.0-style inline types that escaped conversion
			p.Schema = &schema.Node{Type: t}
		}
		params = append(params, p)
	}
	return params
}

// addImplicitPathParams declares placeholders the document forgot to describe.
func addImplicitPathParams(path string, params []Parameter) []Parameter {
	for _, name := range PathParams(path) {
		declared := false
		for _, p := range params {
			if p.In == LocationPath && p.Name == name {
				declared = true
				break
			}
		}
		if !declared {
			params = append(params, Parameter{
				Name:     name,
				In:       LocationPath,
				Required: true,
				Schema:   &schema.Node{Type: "string"},
			})
		}
	}
	return params
}

func (x *extraction) extractRequestBody(op *Operation, raw any) {
	if raw == nil {
		return
	}
	body, ok := x.followRef(raw, "requestBodies")
	if !ok {
		x.warn(fmt.Sprintf("%s: malformed requestBody ignored", op.ID))
		return
	}
	op.RequestBodyRequired, _ = body["required"].(bool)

	media, ok := pickMedia(body["content"], jsonMediaTypes)
	if !ok {
		media, ok = pickMedia(body["content"], yamlMediaTypes)
	}
	if !ok {
		return
	}
	if s, ok := media["schema"]; ok {
		op.RequestBody = x.resolveSchema(op.ID, "request body", schema.FromValue(s))
	}
}

func (x *extraction) extractResponses(op *Operation, raw any) {
	responses, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for code, entry := range responses {
		resp, ok := x.followRef(entry, "responses")
		if !ok {
			x.warn(fmt.Sprintf("%s: malformed response %s ignored", op.ID, code))
			continue
		}
		r := Response{}
		r.Description, _ = resp["description"].(string)
		if media, ok := pickMedia(resp["content"], jsonMediaTypes); ok {
			if s, ok := media["schema"]; ok {
				r.Schema = x.resolveSchema(op.ID, "response "+code, schema.FromValue(s))
			}
		}
		op.Responses[code] = r
	}
}

// resolveSchema expands node, absorbing anomalies: they are logged and the
// best-effort result is kept.
func (x *extraction) resolveSchema(opID, where string, node *schema.Node) *schema.Node {
	resolved, err := x.resolver.Resolve(node, x.schemas)
	if err != nil {
		x.warn(fmt.Sprintf("%s: %s schema: %v", opID, where, err),
			zap.String("operation", opID),
			zap.String("location", where),
		)
	}
	return resolved
}

// followRef returns the mapping behind raw, following
// #/components/<kind>/<Name> references.
func (x *extraction) followRef(raw any, kind string) (map[string]any, bool) {
	m, ok := raw.(map[string]any)
	for hops := 0; ok && hops < maxRefHops; hops++ {
		ref, isRef := m["$ref"].(string)
		if !isRef {
			return m, true
		}
		prefix := "#/components/" + kind + "/"
		if !strings.HasPrefix(ref, prefix) {
			return nil, false
		}
		table, _ := x.components[kind].(map[string]any)
		m, ok = table[strings.TrimPrefix(ref, prefix)].(map[string]any)
	}
	if ok {
		if _, stillRef := m["$ref"]; !stillRef {
			return m, true
		}
	}
	return nil, false
}

// pickMedia returns the first content entry whose media type matches one of
// candidates, ignoring parameters such as charset.
func pickMedia(raw any, candidates []string) (map[string]any, bool) {
	content, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, want := range candidates {
		for _, k := range keys {
			base := strings.TrimSpace(strings.ToLower(strings.SplitN(k, ";", 2)[0]))
			if base != want {
				continue
			}
			if m, ok := content[k].(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// serverURL returns the first server URL with variable defaults applied.
func serverURL(raw any) string {
	servers, ok := raw.([]any)
	if !ok || len(servers) == 0 {
		return ""
	}
	first, ok := servers[0].(map[string]any)
	if !ok {
		return ""
	}
	u, _ := first["url"].(string)
	vars, _ := first["variables"].(map[string]any)
	for name, v := range vars {
		vm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if def, ok := vm["default"]; ok {
			u = strings.ReplaceAll(u, "{"+name+"}", fmt.Sprint(def))
		}
	}
	return u
}

// lookupFold finds a key case-insensitively, preferring the sorted-first match.
func lookupFold(m map[string]any, key string) (string, any, bool) {
	var matches []string
	for k := range m {
		if strings.EqualFold(k, key) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return "", nil, false
	}
	sort.Strings(matches)
	return matches[0], m[matches[0]], true
}

// firstMapping accepts a mapping, or a list whose first mapping is used.
func firstMapping(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

func valueOr(v any, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
