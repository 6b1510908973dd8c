package intent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brizzai/auto-api/internal/schema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateBody checks body against the operation's body schema. Violations
// are returned as warnings: the target API stays the authority on what it
// accepts.
func ValidateBody(bodySchema *schema.Node, body map[string]any) []CoercionWarning {
	if bodySchema == nil || body == nil || bodySchema.IsEmpty() {
		return nil
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("request-body.json", bodySchema.JSONSchema()); err != nil {
		return []CoercionWarning{{Parameter: "request_body", Reason: fmt.Sprintf("add schema resource: %v", err)}}
	}
	sch, err := c.Compile("request-body.json")
	if err != nil {
		return []CoercionWarning{{Parameter: "request_body", Reason: fmt.Sprintf("compile schema: %v", err)}}
	}

	// the validator wants plain decoded JSON, not Go integer types
	data, err := json.Marshal(body)
	if err != nil {
		return []CoercionWarning{{Parameter: "request_body", Reason: fmt.Sprintf("encode body: %v", err)}}
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return []CoercionWarning{{Parameter: "request_body", Reason: fmt.Sprintf("decode body: %v", err)}}
	}

	err = sch.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []CoercionWarning{{Parameter: "request_body", Reason: err.Error()}}
	}

	var warnings []CoercionWarning
	for _, cause := range flattenValidationErrors(ve) {
		location := "request_body"
		if len(cause.InstanceLocation) > 0 {
			location += "." + strings.Join(cause.InstanceLocation, ".")
		}
		warnings = append(warnings, CoercionWarning{
			Parameter: location,
			Expected:  "valid request body",
			Reason:    fmt.Sprintf("%v", cause.ErrorKind),
		})
	}
	return warnings
}

func flattenValidationErrors(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var flat []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
