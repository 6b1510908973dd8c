package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/logger"
	"go.uber.org/zap"
)

// OpenAPIParser loads documents, extracts their operations and applies
// adjustments.
type OpenAPIParser struct {
	adjuster   *Adjuster
	baseURL    string
	maxDepth   int
	validate   bool
	doc        *Document
	operations []Operation
}

// NewOpenAPIParser creates a parser configured from cfg. cfg may be nil.
func NewOpenAPIParser(adjuster *Adjuster, cfg *config.Config) *OpenAPIParser {
	if adjuster == nil {
		adjuster = NewAdjuster()
	}
	p := &OpenAPIParser{adjuster: adjuster}
	if cfg != nil {
		p.baseURL = cfg.EndpointConfig.BaseURL
		p.maxDepth = cfg.Parser.MaxSchemaDepth
		p.validate = cfg.Parser.Validate
	}
	return p
}

// Document returns the last parsed document
func (p *OpenAPIParser) Document() *Document {
	return p.doc
}

// Operations returns the operations kept after adjustments
func (p *OpenAPIParser) Operations() []Operation {
	return p.operations
}

// Adjuster returns the adjuster applied after extraction.
func (p *OpenAPIParser) Adjuster() *Adjuster {
	return p.adjuster
}

// Init parses a document from a file
func (p *OpenAPIParser) Init(openAPIFile string, adjustmentsFile string) error {
	data, err := os.ReadFile(openAPIFile)
	if err != nil {
		return fmt.Errorf("failed to read spec file: %w", err)
	}
	if err := p.adjuster.Load(adjustmentsFile); err != nil {
		return fmt.Errorf("failed to load adjustments file: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseReader parses a document from a reader
func (p *OpenAPIParser) ParseReader(reader io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return fmt.Errorf("failed to read spec: %w", err)
	}
	return p.ParseBytes(buf.Bytes())
}

// ParseBytes parses a YAML or JSON document and applies the adjustments.
func (p *OpenAPIParser) ParseBytes(data []byte) error {
	return p.parse(data, p.adjuster)
}

// ParseUnadjusted parses data and keeps every operation as extracted. The
// loaded adjustments describe one document and are not applied to others.
func (p *OpenAPIParser) ParseUnadjusted(data []byte) error {
	return p.parse(data, nil)
}

func (p *OpenAPIParser) parse(data []byte, adjuster *Adjuster) error {
	root, err := Load(data)
	if err != nil {
		return err
	}

	extractor := NewExtractor(WithBaseURL(p.baseURL), WithMaxSchemaDepth(p.maxDepth))
	doc, err := extractor.Extract(root)
	if err != nil {
		return err
	}

	if p.validate {
		for _, w := range Validate(context.Background(), data) {
			logger.Warn("OpenAPI validation finding", zap.String("finding", w))
			doc.Warnings = append(doc.Warnings, w)
		}
	}

	p.doc = doc
	p.operations = doc.Operations
	if adjuster != nil {
		p.operations = adjuster.Apply(doc.Operations)
		if len(doc.Operations) > 0 && len(p.operations) == 0 {
			logger.Warn("Adjustments removed every operation", zap.Int("operations", len(doc.Operations)))
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("adjustments removed all %d operations", len(doc.Operations)))
		}
	}
	logger.Info("Parsed OpenAPI document",
		zap.String("title", doc.Title),
		zap.Int("operations", len(doc.Operations)),
		zap.Int("selected", len(p.operations)),
	)
	return nil
}
