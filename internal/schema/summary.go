package schema

import (
	"fmt"
	"strings"
)

const summaryDepth = 3

// Summary renders a compact, single-line description of a resolved schema,
// e.g. object{city:string, name*:string} where * marks required fields.
func Summary(n *Node) string {
	var b strings.Builder
	writeSummary(&b, n, 0)
	return b.String()
}

func writeSummary(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		b.WriteString("any")
		return
	}
	if n.Opaque() {
		b.WriteString("ref(" + strings.TrimPrefix(n.Ref, componentPrefix) + ")")
		return
	}

	typ := normalizeType(n.Type)
	if typ == "" {
		switch {
		case len(n.Properties) > 0:
			typ = "object"
		case n.Items != nil:
			typ = "array"
		default:
			typ = "any"
		}
	}

	switch typ {
	case "object":
		b.WriteString("object")
		if len(n.Properties) == 0 {
			return
		}
		if depth >= summaryDepth {
			b.WriteString("{...}")
			return
		}
		b.WriteString("{")
		for i, name := range n.PropertyNames() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			if n.HasRequired(name) {
				b.WriteString("*")
			}
			b.WriteString(":")
			writeSummary(b, n.Properties[name], depth+1)
		}
		b.WriteString("}")
	case "array":
		b.WriteString("array[")
		writeSummary(b, n.Items, depth+1)
		b.WriteString("]")
	default:
		b.WriteString(typ)
		if n.Format != "" {
			b.WriteString("(" + n.Format + ")")
		}
		if len(n.Enum) > 0 {
			vals := make([]string, 0, len(n.Enum))
			for _, v := range n.Enum {
				vals = append(vals, fmt.Sprint(v))
			}
			b.WriteString(" enum[" + strings.Join(vals, "|") + "]")
		}
	}
}
