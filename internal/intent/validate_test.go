package intent

import (
	"testing"

	"github.com/brizzai/auto-api/internal/schema"
	"github.com/stretchr/testify/assert"
)

func TestValidateBody(t *testing.T) {
	bodySchema := &schema.Node{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*schema.Node{
			"name":  {Type: "string"},
			"seats": {Type: "integer"},
			"owner": {Ref: "#/components/schemas/Missing"},
			"tags":  {Type: "array", Items: &schema.Node{Type: "string"}},
			"note":  {Type: "string", Nullable: true},
		},
	}

	tests := []struct {
		name string
		body map[string]any
		want []string
	}{
		{name: "valid", body: map[string]any{"name": "Acme", "seats": int64(3)}},
		{name: "opaque property accepts anything", body: map[string]any{"name": "Acme", "owner": 12}},
		{name: "nullable accepts null", body: map[string]any{"name": "Acme", "note": nil}},
		{name: "wrong type", body: map[string]any{"name": "Acme", "seats": "three"}, want: []string{"request_body.seats"}},
		{name: "wrong item type", body: map[string]any{"name": "Acme", "tags": []any{"a", 2}}, want: []string{"request_body.tags.1"}},
		{name: "missing required", body: map[string]any{"seats": 1}, want: []string{"request_body"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, w := range ValidateBody(bodySchema, tt.body) {
				got = append(got, w.Parameter)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateBody_NothingToCheck(t *testing.T) {
	assert.Nil(t, ValidateBody(nil, map[string]any{"a": 1}))
	assert.Nil(t, ValidateBody(&schema.Node{Type: "object"}, nil))
	assert.Nil(t, ValidateBody(&schema.Node{}, map[string]any{"a": 1}))
}
