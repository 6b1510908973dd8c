package intent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/registry"
	"golang.org/x/sync/errgroup"
)

// indexConcurrency bounds parallel embedding calls during indexing.
const indexConcurrency = 4

// Index is an in-memory cosine-similarity index over tool descriptions.
type Index struct {
	embedder llm.Embedder

	mu      sync.RWMutex
	vectors map[string][]float64
}

// NewIndex creates an empty index.
func NewIndex(embedder llm.Embedder) *Index {
	return &Index{embedder: embedder, vectors: map[string][]float64{}}
}

// ToolDocument is the text embedded for a tool: its name, method, path,
// summary, description, tags, parameters and body.
func ToolDocument(t registry.ToolInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Operation: %s\nMethod: %s\nPath: %s\n", t.Name, t.Method, t.Path)
	if t.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", t.Summary)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", t.Description)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(t.Tags, ", "))
	}
	for _, p := range t.Parameters {
		fmt.Fprintf(&b, "Parameter: %s in %s", p.Name, p.In)
		if p.Type != "" {
			fmt.Fprintf(&b, " (%s)", p.Type)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}
		b.WriteString("\n")
	}
	if t.Body != "" {
		fmt.Fprintf(&b, "Request body: %s\n", t.Body)
	}
	return b.String()
}

// Rebuild embeds every tool concurrently and replaces the index contents.
func (ix *Index) Rebuild(ctx context.Context, tools []registry.ToolInfo) error {
	vectors := make([][]float64, len(tools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexConcurrency)
	for i, t := range tools {
		g.Go(func() error {
			vec, err := ix.embedder.Embed(gctx, ToolDocument(t))
			if err != nil {
				return fmt.Errorf("embed %s: %w", t.Name, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	next := make(map[string][]float64, len(tools))
	for i, t := range tools {
		next[t.Name] = vectors[i]
	}
	ix.mu.Lock()
	ix.vectors = next
	ix.mu.Unlock()
	return nil
}

// Len returns the number of indexed tools.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Shortlist returns the k tools most similar to query, best first. Tools
// missing from the index are ranked last in their original order.
func (ix *Index) Shortlist(ctx context.Context, query string, tools []registry.ToolInfo, k int) ([]registry.ToolInfo, error) {
	if k <= 0 || len(tools) <= k {
		return tools, nil
	}
	q, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		tool  registry.ToolInfo
		score float64
		pos   int
	}
	ix.mu.RLock()
	ranked := make([]scored, 0, len(tools))
	for i, t := range tools {
		s := math.Inf(-1)
		if vec, ok := ix.vectors[t.Name]; ok {
			s = Cosine(q, vec)
		}
		ranked = append(ranked, scored{tool: t, score: s, pos: i})
	}
	ix.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].pos < ranked[j].pos
	})
	out := make([]registry.ToolInfo, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, r.tool)
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b, 0 for mismatched or zero vectors.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
