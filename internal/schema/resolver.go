package schema

import (
	"errors"
	"strings"
)

// DefaultMaxDepth bounds schema nesting during resolution.
const DefaultMaxDepth = 32

const componentPrefix = "#/components/schemas/"

// Resolver expands $ref and allOf. The zero value uses DefaultMaxDepth.
type Resolver struct {
	MaxDepth int
}

// Resolve expands node against components with the default depth bound.
func Resolve(node *Node, components Components) (*Node, error) {
	return Resolver{}.Resolve(node, components)
}

// Resolve returns a freshly allocated, fully expanded copy of node; node
// itself is never modified.
//
// The returned error joins every anomaly met along the way. Unresolved
// references are left in place as opaque nodes and the walk continues. A
// cycle or an over-deep nesting stops expansion at that point and yields a
// *SchemaCycleError; the partial tree is still returned so callers can keep
// a best-effort schema. When the error is nil no Ref is reachable from the
// result.
func (r Resolver) Resolve(node *Node, components Components) (*Node, error) {
	st := &resolveState{
		components: components,
		maxDepth:   r.MaxDepth,
		reported:   map[string]bool{},
	}
	if st.maxDepth <= 0 {
		st.maxDepth = DefaultMaxDepth
	}
	out := st.resolve(node, 0)
	return out, errors.Join(st.issues...)
}

// Lookup returns the component addressed by ref.
func (c Components) Lookup(ref string) (*Node, error) {
	name, ok := componentName(ref)
	if !ok {
		return nil, &UnresolvedReferenceError{Ref: ref}
	}
	target, ok := c.Schemas[name]
	if !ok || target == nil {
		return nil, &UnresolvedReferenceError{Ref: ref}
	}
	return target, nil
}

func componentName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, componentPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, componentPrefix)
	// JSON pointer escapes
	name = strings.ReplaceAll(name, "~1", "/")
	name = strings.ReplaceAll(name, "~0", "~")
	return name, name != ""
}

type resolveState struct {
	components Components
	maxDepth   int
	chain      []string
	issues     []error
	reported   map[string]bool
}

func (s *resolveState) report(key string, err error) {
	if s.reported[key] {
		return
	}
	s.reported[key] = true
	s.issues = append(s.issues, err)
}

func (s *resolveState) resolve(n *Node, depth int) *Node {
	if n == nil {
		return nil
	}
	if depth > s.maxDepth {
		s.report("depth:"+strings.Join(s.chain, ">"), &SchemaCycleError{
			Ref:           n.Ref,
			Chain:         append([]string(nil), s.chain...),
			Depth:         depth,
			DepthExceeded: true,
		})
		return n.Clone()
	}
	if n.Ref != "" {
		return s.resolveRef(n, depth)
	}

	out := shallowCopy(n)
	if n.Properties != nil {
		out.Properties = make(map[string]*Node, len(n.Properties))
		for name, prop := range n.Properties {
			out.Properties[name] = s.resolve(prop, depth+1)
		}
	}
	out.Items = s.resolve(n.Items, depth+1)

	if len(n.AllOf) == 0 {
		return out
	}

	merged := &Node{}
	for _, branch := range n.AllOf {
		mergeInto(merged, s.resolve(branch, depth+1))
	}
	// keys written next to allOf take precedence over every branch
	mergeInto(merged, out)
	return merged
}

func (s *resolveState) resolveRef(n *Node, depth int) *Node {
	target, err := s.components.Lookup(n.Ref)
	if err != nil {
		s.report("ref:"+n.Ref, err)
		return n.Clone()
	}
	for _, seen := range s.chain {
		if seen == n.Ref {
			s.report("cycle:"+n.Ref, &SchemaCycleError{
				Ref:   n.Ref,
				Chain: append([]string(nil), s.chain...),
				Depth: depth,
			})
			return n.Clone()
		}
	}

	s.chain = append(s.chain, n.Ref)
	resolved := s.resolve(target, depth)
	s.chain = s.chain[:len(s.chain)-1]

	// 3.1 allows annotations next to $ref; they override the target's.
	sibling := shallowCopy(n)
	sibling.Ref = ""
	mergeInto(resolved, sibling)
	return resolved
}

// shallowCopy copies scalar fields and leaves Properties, Items and AllOf unset.
func shallowCopy(n *Node) *Node {
	out := &Node{
		Ref:         n.Ref,
		Type:        n.Type,
		Title:       n.Title,
		Description: n.Description,
		Format:      n.Format,
		Pattern:     n.Pattern,
		Example:     n.Example,
		Default:     n.Default,
		Nullable:    n.Nullable,
	}
	if n.Required != nil {
		out.Required = append([]string(nil), n.Required...)
	}
	if n.Enum != nil {
		out.Enum = append([]any(nil), n.Enum...)
	}
	if n.Minimum != nil {
		v := *n.Minimum
		out.Minimum = &v
	}
	if n.Maximum != nil {
		v := *n.Maximum
		out.Maximum = &v
	}
	if n.MinLength != nil {
		v := *n.MinLength
		out.MinLength = &v
	}
	if n.MaxLength != nil {
		v := *n.MaxLength
		out.MaxLength = &v
	}
	return out
}

// mergeInto applies src over dst: set scalar keys overwrite, properties
// merge key by key, required names are unioned. Ref is never copied.
func mergeInto(dst, src *Node) {
	if src == nil {
		return
	}
	if src.Type != "" {
		dst.Type = src.Type
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Pattern != "" {
		dst.Pattern = src.Pattern
	}
	if src.Example != nil {
		dst.Example = src.Example
	}
	if src.Default != nil {
		dst.Default = src.Default
	}
	if src.Nullable {
		dst.Nullable = true
	}
	if src.Enum != nil {
		dst.Enum = src.Enum
	}
	if src.Minimum != nil {
		dst.Minimum = src.Minimum
	}
	if src.Maximum != nil {
		dst.Maximum = src.Maximum
	}
	if src.MinLength != nil {
		dst.MinLength = src.MinLength
	}
	if src.MaxLength != nil {
		dst.MaxLength = src.MaxLength
	}
	if src.Items != nil {
		dst.Items = src.Items
	}
	if src.Properties != nil {
		if dst.Properties == nil {
			dst.Properties = make(map[string]*Node, len(src.Properties))
		}
		for name, prop := range src.Properties {
			dst.Properties[name] = prop
		}
	}
	for _, name := range src.Required {
		if !dst.HasRequired(name) {
			dst.Required = append(dst.Required, name)
		}
	}
}

// HasRefs reports whether any Ref is reachable from n.
func HasRefs(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Ref != "" {
		return true
	}
	for _, p := range n.Properties {
		if HasRefs(p) {
			return true
		}
	}
	for _, b := range n.AllOf {
		if HasRefs(b) {
			return true
		}
	}
	return HasRefs(n.Items)
}
