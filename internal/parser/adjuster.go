package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Adjuster filters operations and overrides their descriptions and names
// based on a YAML adjustments file.
type Adjuster struct {
	adjustments *models.Adjustments
}

// NewAdjuster creates a new Adjuster instance
func NewAdjuster() *Adjuster {
	return &Adjuster{adjustments: &models.Adjustments{}}
}

// Load reads adjustments from a YAML file. An empty path or a missing file
// leaves the adjuster as a pass-through.
func (a *Adjuster) Load(filePath string) error {
	if filePath == "" {
		logger.Debug("No adjustments file provided")
		return nil
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("Adjustments file not found", zap.String("file", filePath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read adjustments file: %w", err)
	}

	logger.Info("Loading adjustments from file", zap.String("file", filePath))
	return a.LoadBytes(data)
}

// LoadBytes parses adjustments from YAML data.
func (a *Adjuster) LoadBytes(data []byte) error {
	var adjustments models.Adjustments
	if err := yaml.Unmarshal(data, &adjustments); err != nil {
		return fmt.Errorf("failed to parse adjustments: %w", err)
	}
	a.adjustments = &adjustments
	return nil
}

// Adjustments returns the loaded adjustments.
func (a *Adjuster) Adjustments() *models.Adjustments {
	return a.adjustments
}

// Selected reports whether the operation stays registered. Without an
// operations list everything is selected.
func (a *Adjuster) Selected(path, method string) bool {
	if a.adjustments == nil || len(a.adjustments.Operations) == 0 {
		return true
	}
	for _, selection := range a.adjustments.Operations {
		if selection.Path != path {
			continue
		}
		for _, m := range selection.Methods {
			if strings.EqualFold(m, method) {
				return true
			}
		}
		return false
	}
	return false
}

// Description returns the override for path/method, or original.
func (a *Adjuster) Description(path, method, original string) string {
	if a.adjustments == nil {
		return original
	}
	for _, desc := range a.adjustments.Descriptions {
		if desc.Path != path {
			continue
		}
		for _, update := range desc.Updates {
			if strings.EqualFold(update.Method, method) {
				return update.NewDescription
			}
		}
		break
	}
	return original
}

// Name returns the configured tool name for path/method, or original.
func (a *Adjuster) Name(path, method, original string) string {
	if a.adjustments == nil {
		return original
	}
	for _, r := range a.adjustments.Renames {
		if r.Path == path && strings.EqualFold(r.Method, method) && r.Name != "" {
			return r.Name
		}
	}
	return original
}

// Apply filters ops and applies overrides, returning new operations.
func (a *Adjuster) Apply(ops []Operation) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if !a.Selected(op.Path, op.Method) {
			logger.Debug("Operation filtered by adjustments", zap.String("operation", op.ID))
			continue
		}
		adjusted := op.Clone()
		adjusted.Description = a.Description(op.Path, op.Method, op.Description)
		adjusted.ID = a.Name(op.Path, op.Method, op.ID)
		out = append(out, adjusted)
	}
	return out
}
