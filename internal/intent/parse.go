package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseResponse extracts the plan object from an unreliable completion.
// Candidates are balanced {...} substrings found left to right; the first
// one that decodes as a JSON object carrying a tool_name key wins. Prose and
// markdown fences around it are ignored. A null, empty or "none" tool_name
// is the explicit no-match signal. A plan object of the wrong shape is a
// parse failure, never a partial plan.
func ParseResponse(raw string) (*RawPlan, error) {
	for _, candidate := range objectCandidates(raw) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		if _, ok := obj["tool_name"]; ok {
			return planFromObject(raw, obj)
		}
	}
	return nil, &NoStructuredResponseError{Raw: raw}
}

func planFromObject(raw string, obj map[string]any) (*RawPlan, error) {
	malformed := func(reason string) error {
		return &NoStructuredResponseError{Raw: raw, Reason: reason}
	}

	var name string
	switch v := obj["tool_name"].(type) {
	case nil:
	case string:
		name = strings.TrimSpace(v)
	default:
		return nil, malformed(fmt.Sprintf("tool_name is a %T, not a string", v))
	}
	switch strings.ToLower(name) {
	case "", "none", "null":
		return nil, ErrNoToolMatched
	}

	plan := &RawPlan{ToolName: name, Parameters: map[string]any{}}
	switch v := obj["parameters"].(type) {
	case nil:
	case map[string]any:
		plan.Parameters = v
	default:
		return nil, malformed(fmt.Sprintf("parameters is a %T, not an object", v))
	}
	switch v := obj["request_body"].(type) {
	case nil:
	case map[string]any:
		if len(v) > 0 {
			plan.RequestBody = v
		}
	default:
		return nil, malformed(fmt.Sprintf("request_body is a %T, not an object", v))
	}
	return plan, nil
}

// objectCandidates returns every balanced brace-delimited substring, in
// order of their opening brace. Braces inside JSON strings do not count.
func objectCandidates(s string) []string {
	var out []string
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end := matchBrace(s, start); end > start {
			out = append(out, s[start:end+1])
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return out
}

// matchBrace returns the index of the brace closing s[start], or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
