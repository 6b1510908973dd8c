package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/brizzai/auto-api/internal/logger"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when the document root is not a mapping.
var ErrInvalidDocument = errors.New("invalid OpenAPI document")

// Load decodes a YAML or JSON document into a raw mapping. Swagger 2.0
// documents are converted to OpenAPI 3 first.
func Load(data []byte) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	root, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T, expected a mapping", ErrInvalidDocument, raw)
	}

	if version, ok := root["swagger"]; ok {
		return convertSwagger2(root, version)
	}
	return root, nil
}

// normalize turns YAML's map[any]any (e.g. unquoted `200:` keys) into
// map[string]any recursively so the tree looks like decoded JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

// convertSwagger2 converts a Swagger 2.0 raw document into an OpenAPI 3 raw document.
// An unquoted YAML `swagger: 2.0` decodes as a number and is accepted too.
func convertSwagger2(root map[string]any, version any) (map[string]any, error) {
	if !isSwagger2(version) {
		return nil, fmt.Errorf("%w: unsupported Swagger version: %v", ErrInvalidDocument, version)
	}
	root["swagger"] = "2.0"

	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode Swagger 2.0 document: %w", err)
	}

	var swagger2Doc openapi2.T
	if err := json.Unmarshal(data, &swagger2Doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}

	logger.Info("Detected OpenAPI 2.0 spec, converting to OpenAPI 3.0")
	converted, err := openapi2conv.ToV3(&swagger2Doc)
	if err != nil {
		logger.Error("Failed to convert OpenAPI 2.0 to 3.0", zap.Error(err))
		return nil, fmt.Errorf("failed to convert OpenAPI 2.0 to 3.0: %w", err)
	}

	out, err := json.Marshal(converted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode converted document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode converted document: %w", err)
	}
	return doc, nil
}

func isSwagger2(version any) bool {
	v := strings.TrimSpace(fmt.Sprint(version))
	return v == "2" || v == "2.0" || strings.HasPrefix(v, "2.0.")
}

// Validate runs the full kin-openapi validation on data and returns its
// findings as warnings. Ingestion never depends on the outcome.
func Validate(ctx context.Context, data []byte) []string {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return []string{fmt.Sprintf("load: %v", err)}
	}
	if doc.OpenAPI == "" {
		// Swagger 2.0 and other shapes are not validated here
		return nil
	}
	if err := doc.Validate(ctx); err != nil {
		return []string{fmt.Sprintf("validate: %v", err)}
	}
	return nil
}
