// Package schema models OpenAPI schema objects and expands their $ref and
// allOf indirections against a document's component table.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Node is a recursively structured type descriptor. A Node carrying Ref is
// unresolved; Resolve replaces it with the referenced structure.
type Node struct {
	Ref         string           `json:"$ref,omitempty"`
	Type        string           `json:"type,omitempty"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Format      string           `json:"format,omitempty"`
	Properties  map[string]*Node `json:"properties,omitempty"`
	Required    []string         `json:"required,omitempty"`
	Items       *Node            `json:"items,omitempty"`
	Enum        []any            `json:"enum,omitempty"`
	AllOf       []*Node          `json:"allOf,omitempty"`
	Minimum     *float64         `json:"minimum,omitempty"`
	Maximum     *float64         `json:"maximum,omitempty"`
	MinLength   *int64           `json:"minLength,omitempty"`
	MaxLength   *int64           `json:"maxLength,omitempty"`
	Pattern     string           `json:"pattern,omitempty"`
	Example     any              `json:"example,omitempty"`
	Default     any              `json:"default,omitempty"`
	Nullable    bool             `json:"nullable,omitempty"`
}

// Components is the reusable schema table of a document.
type Components struct {
	Schemas map[string]*Node
}

// ComponentsFromValue reads components.schemas out of a raw decoded
// components mapping. Anything malformed is ignored.
func ComponentsFromValue(raw any) Components {
	c := Components{Schemas: map[string]*Node{}}
	m, ok := raw.(map[string]any)
	if !ok {
		return c
	}
	schemas, ok := m["schemas"].(map[string]any)
	if !ok {
		return c
	}
	for name, v := range schemas {
		c.Schemas[name] = FromValue(v)
	}
	return c
}

// FromValue converts a raw decoded YAML/JSON value into a Node. Values that
// are not mappings produce an empty node.
func FromValue(raw any) *Node {
	m, ok := raw.(map[string]any)
	if !ok {
		return &Node{}
	}

	n := &Node{
		Ref:         stringValue(m["$ref"]),
		Type:        typeValue(m["type"]),
		Title:       stringValue(m["title"]),
		Description: stringValue(m["description"]),
		Format:      stringValue(m["format"]),
		Pattern:     stringValue(m["pattern"]),
		Example:     m["example"],
		Default:     m["default"],
		Minimum:     floatPtr(m["minimum"]),
		Maximum:     floatPtr(m["maximum"]),
		MinLength:   intPtr(m["minLength"]),
		MaxLength:   intPtr(m["maxLength"]),
	}
	if b, ok := m["nullable"].(bool); ok {
		n.Nullable = b
	}
	if props, ok := m["properties"].(map[string]any); ok {
		n.Properties = make(map[string]*Node, len(props))
		for name, v := range props {
			n.Properties[name] = FromValue(v)
		}
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				n.Required = append(n.Required, s)
			}
		}
	}
	if items, ok := m["items"]; ok {
		n.Items = FromValue(items)
	}
	if enum, ok := m["enum"].([]any); ok {
		n.Enum = append([]any(nil), enum...)
	}
	if all, ok := m["allOf"].([]any); ok {
		for _, branch := range all {
			n.AllOf = append(n.AllOf, FromValue(branch))
		}
	}
	// 3.1 documents express nullability through a type list.
	if types, ok := m["type"].([]any); ok {
		for _, t := range types {
			if t == "null" {
				n.Nullable = true
			}
		}
	}
	return n
}

// Opaque reports whether the node is an unresolved reference.
func (n *Node) Opaque() bool {
	return n != nil && n.Ref != ""
}

// IsEmpty reports whether the node carries no information at all.
func (n *Node) IsEmpty() bool {
	if n == nil {
		return true
	}
	return n.Ref == "" && n.Type == "" && len(n.Properties) == 0 && n.Items == nil &&
		len(n.AllOf) == 0 && len(n.Enum) == 0 && n.Description == ""
}

// HasRequired reports whether name is listed in Required.
func (n *Node) HasRequired(name string) bool {
	if n == nil {
		return false
	}
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// PropertyNames returns the property names in sorted order.
func (n *Node) PropertyNames() []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Properties != nil {
		c.Properties = make(map[string]*Node, len(n.Properties))
		for k, v := range n.Properties {
			c.Properties[k] = v.Clone()
		}
	}
	if n.Required != nil {
		c.Required = append([]string(nil), n.Required...)
	}
	if n.Enum != nil {
		c.Enum = append([]any(nil), n.Enum...)
	}
	if n.AllOf != nil {
		c.AllOf = make([]*Node, len(n.AllOf))
		for i, b := range n.AllOf {
			c.AllOf[i] = b.Clone()
		}
	}
	c.Items = n.Items.Clone()
	if n.Minimum != nil {
		v := *n.Minimum
		c.Minimum = &v
	}
	if n.Maximum != nil {
		v := *n.Maximum
		c.Maximum = &v
	}
	if n.MinLength != nil {
		v := *n.MinLength
		c.MinLength = &v
	}
	if n.MaxLength != nil {
		v := *n.MaxLength
		c.MaxLength = &v
	}
	return &c
}

// JSONSchema renders the node as a plain JSON Schema mapping. Opaque nodes
// become an unconstrained schema so validators and clients accept anything.
func (n *Node) JSONSchema() map[string]any {
	if n == nil || n.Opaque() {
		return map[string]any{}
	}
	data, err := json.Marshal(n)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	toJSONSchema(out)
	return out
}

// toJSONSchema rewrites the OpenAPI nullable flag into a JSON Schema type
// list and drops unresolved references, which a validator could not follow.
func toJSONSchema(m map[string]any) {
	if _, ok := m["$ref"]; ok {
		clear(m)
		return
	}
	if nullable, ok := m["nullable"].(bool); ok {
		delete(m, "nullable")
		if t, ok := m["type"].(string); ok && nullable {
			m["type"] = []any{t, "null"}
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				toJSONSchema(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		toJSONSchema(items)
	}
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Opaque() {
		return fmt.Sprintf("ref(%s)", n.Ref)
	}
	return Summary(n)
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// typeValue accepts both the 3.0 string form and the 3.1 list form.
func typeValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

func floatPtr(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func intPtr(v any) *int64 {
	f := floatPtr(v)
	if f == nil || *f != math.Trunc(*f) {
		return nil
	}
	i := int64(*f)
	return &i
}

// normalizeType lowercases a declared type for comparisons.
func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
