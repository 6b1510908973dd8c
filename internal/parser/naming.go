package parser

import (
	"regexp"
	"strings"
)

var (
	nonIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	underscores   = regexp.MustCompile(`_+`)
	placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)
)

// sanitizeIdentifier keeps letters, digits and underscores, collapsing
// everything else into single underscores.
func sanitizeIdentifier(s string) string {
	s = nonIdentChars.ReplaceAllString(s, "_")
	s = underscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// operationIdentifier derives a stable name: the explicit operationId when
// present, otherwise METHOD_path with separators and braces flattened, e.g.
// GET /accounts/{id} -> GET_accounts_id.
func operationIdentifier(operationID, method, path string) string {
	if id := sanitizeIdentifier(operationID); id != "" {
		return id
	}
	p := strings.NewReplacer("{", "", "}", "").Replace(path)
	p = sanitizeIdentifier(p)
	if p == "" {
		p = "root"
	}
	return strings.ToUpper(method) + "_" + p
}

// joinURL joins a base URL and a path template with exactly one slash.
func joinURL(base, path string) string {
	if base == "" {
		return "/" + strings.TrimLeft(path, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// PathParams lists the placeholder names of a template in order of appearance.
func PathParams(template string) []string {
	matches := placeholderRe.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
