// Package assistant ties ingestion, resolution, invocation and explanation
// into the two user-facing flows: Ingest and Ask.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/history"
	"github.com/brizzai/auto-api/internal/intent"
	"github.com/brizzai/auto-api/internal/invoker"
	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/metrics"
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/registry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// historyResponseLimit caps the response text stored per query.
const historyResponseLimit = 8 << 10

// IngestReport summarizes one ingestion.
type IngestReport struct {
	Filename string   `json:"filename"`
	Title    string   `json:"title"`
	Version  string   `json:"version"`
	BaseURL  string   `json:"base_url"`
	Tools    []string `json:"tools"`
	Warnings []string `json:"warnings,omitempty"`
}

// Answer is the outcome of one query. Exactly one of Result and Failure is
// set.
type Answer struct {
	Query       string             `json:"query"`
	Plan        *intent.Plan       `json:"plan,omitempty"`
	Result      *invoker.APIResult `json:"result,omitempty"`
	Explanation string             `json:"explanation,omitempty"`
	Failure     *intent.Failure    `json:"failure,omitempty"`
}

// Assistant runs the ingest and ask flows.
type Assistant struct {
	parser    *parser.OpenAPIParser
	registry  *registry.Registry
	resolver  *intent.Resolver
	invoker   *invoker.Invoker
	completer llm.Completer
	history   history.Store
	metrics   *metrics.Collector
	explain   bool

	// ingestMu serializes ingestions; the parser keeps per-document state.
	ingestMu sync.Mutex
	onIngest []func(*IngestReport)
	log      *zap.Logger
}

// Params are the dependencies of New.
type Params struct {
	fx.In

	Config   *config.Config
	Parser   *parser.OpenAPIParser
	Registry *registry.Registry
	Resolver *intent.Resolver
	Invoker  *invoker.Invoker
	Provider llm.Provider       `optional:"true"`
	History  history.Store      `optional:"true"`
	Metrics  *metrics.Collector `optional:"true"`
}

// New creates an assistant.
func New(p Params) *Assistant {
	a := &Assistant{
		parser:   p.Parser,
		registry: p.Registry,
		resolver: p.Resolver,
		invoker:  p.Invoker,
		history:  p.History,
		metrics:  p.Metrics,
		explain:  p.Config == nil || p.Config.Resolver.Explain,
		log:      logger.Named("assistant"),
	}
	if p.Provider != nil {
		a.completer = p.Provider
	}
	if a.history == nil {
		a.history = history.NopStore{}
	}
	return a
}

// Registry returns the tool registry.
func (a *Assistant) Registry() *registry.Registry {
	return a.registry
}

// LoadAdjustments loads the adjustments applied by IngestFile.
func (a *Assistant) LoadAdjustments(path string) error {
	a.ingestMu.Lock()
	defer a.ingestMu.Unlock()
	return a.parser.Adjuster().Load(path)
}

// OnIngest registers fn to run after every successful ingestion.
func (a *Assistant) OnIngest(fn func(*IngestReport)) {
	a.ingestMu.Lock()
	defer a.ingestMu.Unlock()
	a.onIngest = append(a.onIngest, fn)
}

// IngestFile reads and ingests the document at path with the loaded
// adjustments applied.
func (a *Assistant) IngestFile(ctx context.Context, path string) (*IngestReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return a.ingest(ctx, filepath.Base(path), data, a.parser.ParseBytes)
}

// Ingest parses an uploaded document, replaces the registry contents with
// all of its operations, refreshes the embedding index and records the
// upload. Adjustments are not applied; they belong to the configured
// document. On a parse error the registry is left untouched.
func (a *Assistant) Ingest(ctx context.Context, name string, data []byte) (*IngestReport, error) {
	return a.ingest(ctx, name, data, a.parser.ParseUnadjusted)
}

func (a *Assistant) ingest(ctx context.Context, name string, data []byte, parse func([]byte) error) (*IngestReport, error) {
	a.ingestMu.Lock()
	defer a.ingestMu.Unlock()

	if err := parse(data); err != nil {
		a.metrics.RecordIngestion(err, 0)
		return nil, fmt.Errorf("ingest %s: %w", name, err)
	}
	doc := a.parser.Document()
	ops := a.parser.Operations()

	if err := a.registry.Replace(ops); err != nil {
		a.metrics.RecordIngestion(err, 0)
		return nil, fmt.Errorf("ingest %s: %w", name, err)
	}
	a.metrics.RecordIngestion(nil, a.registry.Len())

	report := &IngestReport{
		Filename: name,
		Title:    doc.Title,
		Version:  doc.Version,
		BaseURL:  doc.BaseURL,
		Tools:    a.registry.Names(),
		Warnings: append([]string(nil), doc.Warnings...),
	}

	if index := a.resolver.Index(); index != nil {
		if err := index.Rebuild(ctx, a.registry.Manifest()); err != nil {
			a.log.Warn("Embedding index not rebuilt", zap.Error(err))
			report.Warnings = append(report.Warnings, fmt.Sprintf("embedding index not rebuilt: %v", err))
		}
	}

	record := &history.UploadedFile{
		Filename:  name,
		Title:     doc.Title,
		Version:   doc.Version,
		ToolCount: len(ops),
	}
	for _, op := range ops {
		record.Operations = append(record.Operations, history.Operation{
			Name:        op.ID,
			Method:      op.Method,
			Path:        op.Path,
			Description: op.Text(),
		})
	}
	if err := a.history.SaveDocument(ctx, record); err != nil {
		a.log.Warn("Upload not recorded", zap.Error(err))
	}

	a.log.Info("Document ingested",
		zap.String("filename", name),
		zap.Int("tools", len(report.Tools)),
		zap.Int("warnings", len(report.Warnings)))
	for _, fn := range a.onIngest {
		fn(report)
	}
	return report, nil
}

// Ask resolves query, invokes the chosen tool and explains the result.
// Resolution and invocation failures are reported in Answer.Failure; the
// error is reserved for an empty query or a cancelled context.
func (a *Assistant) Ask(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is empty")
	}
	answer := &Answer{Query: query}

	start := time.Now()
	plan, err := a.resolver.Resolve(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		answer.Failure = intent.Classify(err)
		a.metrics.RecordResolution(string(answer.Failure.Kind), time.Since(start))
		a.log.Info("Query not resolved", zap.String("kind", string(answer.Failure.Kind)), zap.Error(err))
		a.record(ctx, answer)
		return answer, nil
	}
	a.metrics.RecordResolution("ok", time.Since(start))
	answer.Plan = plan

	result, err := a.invoker.Invoke(ctx, plan)
	if err != nil {
		answer.Failure = intent.Classify(err)
		a.record(ctx, answer)
		return answer, nil
	}
	answer.Result = result

	if a.explain {
		answer.Explanation = a.Explain(ctx, query, plan, result)
	}
	a.record(ctx, answer)
	return answer, nil
}

func (a *Assistant) record(ctx context.Context, answer *Answer) {
	rec := &history.QueryRecord{Query: answer.Query}
	if answer.Plan != nil {
		rec.ToolName = answer.Plan.ToolName
	}
	if answer.Failure != nil {
		rec.Failure = string(answer.Failure.Kind)
		rec.Response = answer.Failure.Message
	}
	if answer.Result != nil {
		rec.StatusCode = answer.Result.StatusCode
		rec.Response = truncate(renderBody(answer.Result), historyResponseLimit)
	}
	if err := a.history.SaveQuery(ctx, rec); err != nil {
		a.log.Warn("Query not recorded", zap.Error(err))
	}
}

// Recent returns up to limit past queries, newest first.
func (a *Assistant) Recent(ctx context.Context, limit int) ([]history.QueryRecord, error) {
	return a.history.RecentQueries(ctx, limit)
}

// Documents returns the recorded uploads, newest first.
func (a *Assistant) Documents(ctx context.Context) ([]history.UploadedFile, error) {
	return a.history.ListDocuments(ctx)
}

func renderBody(result *invoker.APIResult) string {
	if result.Error != "" {
		return result.Error
	}
	switch body := result.Body.(type) {
	case nil:
		return ""
	case string:
		return body
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Sprint(body)
		}
		return string(data)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// Module provides the Assistant.
var Module = fx.Module("assistant", fx.Provide(New))
