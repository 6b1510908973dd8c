package schema

const sampleDepth = 5

// Sample builds an example value for a schema. Declared examples and
// defaults win, then the first enum value, then a value chosen by type and
// format.
func Sample(n *Node) any {
	return sample(n, 0)
}

func sample(n *Node, depth int) any {
	if n == nil || n.Opaque() || depth > sampleDepth {
		return nil
	}
	if n.Example != nil {
		return n.Example
	}
	if n.Default != nil {
		return n.Default
	}
	if len(n.Enum) > 0 {
		return n.Enum[0]
	}

	switch normalizeType(n.Type) {
	case "string":
		return sampleString(n.Format)
	case "integer":
		if n.Minimum != nil {
			return int64(*n.Minimum)
		}
		return int64(1)
	case "number":
		if n.Minimum != nil {
			return *n.Minimum
		}
		return 1.5
	case "boolean":
		return true
	case "array":
		item := sample(n.Items, depth+1)
		if item == nil {
			return []any{}
		}
		return []any{item}
	case "object", "":
		if len(n.Properties) == 0 {
			if n.Type == "" {
				return nil
			}
			return map[string]any{}
		}
		out := make(map[string]any, len(n.Properties))
		for _, name := range n.PropertyNames() {
			out[name] = sample(n.Properties[name], depth+1)
		}
		return out
	}
	return nil
}

func sampleString(format string) string {
	switch format {
	case "email":
		return "sample@example.com"
	case "date":
		return "2024-01-01"
	case "date-time":
		return "2024-01-01T00:00:00Z"
	case "uuid":
		return "00000000-0000-4000-8000-000000000000"
	case "uri", "url":
		return "https://example.com"
	case "ipv4":
		return "192.0.2.1"
	case "password":
		return "********"
	}
	return "string"
}
