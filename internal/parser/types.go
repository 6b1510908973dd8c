package parser

import (
	"io"
	"strings"

	"github.com/brizzai/auto-api/internal/schema"
)

// Location is where a parameter travels in the HTTP request.
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationCookie Location = "cookie"
)

// ParseLocation maps the raw `in` value, defaulting to query.
func ParseLocation(in string) Location {
	switch Location(strings.ToLower(in)) {
	case LocationPath:
		return LocationPath
	case LocationHeader:
		return LocationHeader
	case LocationCookie:
		return LocationCookie
	default:
		return LocationQuery
	}
}

// Parameter is one operation input. (Name, In) is its identity.
type Parameter struct {
	Name        string       `json:"name"`
	In          Location     `json:"in"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Schema      *schema.Node `json:"schema,omitempty"`
}

// Type returns the declared schema type, or "" when unknown.
func (p Parameter) Type() string {
	if p.Schema == nil {
		return ""
	}
	return p.Schema.Type
}

// Response is one documented status code.
type Response struct {
	Description string       `json:"description"`
	Schema      *schema.Node `json:"schema,omitempty"`
}

// Operation is one HTTP method on one path, fully resolved. It is not
// modified after extraction; use Clone to derive variants.
type Operation struct {
	ID                  string              `json:"id"`
	Method              string              `json:"method"`
	Path                string              `json:"path"`
	URLTemplate         string              `json:"url_template"`
	Summary             string              `json:"summary,omitempty"`
	Description         string              `json:"description,omitempty"`
	Tags                []string            `json:"tags,omitempty"`
	Parameters          []Parameter         `json:"parameters"`
	RequestBody         *schema.Node        `json:"request_body,omitempty"`
	RequestBodyRequired bool                `json:"request_body_required,omitempty"`
	Responses           map[string]Response `json:"responses,omitempty"`
}

// Parameter returns the parameter with the given name, preferring path
// parameters when a name is declared in several locations.
func (o *Operation) Parameter(name string) (Parameter, bool) {
	var found Parameter
	ok := false
	for _, p := range o.Parameters {
		if p.Name != name {
			continue
		}
		if p.In == LocationPath {
			return p, true
		}
		if !ok {
			found, ok = p, true
		}
	}
	return found, ok
}

// ParametersIn returns the parameters declared in loc.
func (o *Operation) ParametersIn(loc Location) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.In == loc {
			out = append(out, p)
		}
	}
	return out
}

// Text returns the operation's human description, falling back to its summary.
func (o *Operation) Text() string {
	if o.Description != "" {
		return o.Description
	}
	return o.Summary
}

// Clone returns a deep copy.
func (o Operation) Clone() Operation {
	c := o
	c.Tags = append([]string(nil), o.Tags...)
	c.Parameters = make([]Parameter, len(o.Parameters))
	for i, p := range o.Parameters {
		p.Schema = p.Schema.Clone()
		c.Parameters[i] = p
	}
	c.RequestBody = o.RequestBody.Clone()
	if o.Responses != nil {
		c.Responses = make(map[string]Response, len(o.Responses))
		for code, r := range o.Responses {
			r.Schema = r.Schema.Clone()
			c.Responses[code] = r
		}
	}
	return c
}

// Document is an ingested API description.
type Document struct {
	Title      string
	Version    string
	BaseURL    string
	Operations []Operation
	// Warnings collects tolerated anomalies met during extraction.
	Warnings []string
}

// Parser turns OpenAPI documents into operations.
type Parser interface {
	// Init parses a document from a file, applying an optional adjustments file
	Init(openAPIFile string, adjustmentsFile string) error
	// ParseReader parses a document from a reader
	ParseReader(reader io.Reader) error
	// Document returns the last parsed document
	Document() *Document
	// Operations returns the operations kept after adjustments
	Operations() []Operation
}
