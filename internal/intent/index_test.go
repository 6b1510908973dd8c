package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/brizzai/auto-api/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float64{1}, []float64{1, 2}))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 2}))
	assert.Zero(t, Cosine(nil, nil))
}

func TestIndex_RebuildAndShortlist(t *testing.T) {
	reg := accountRegistry(t)
	index := NewIndex(keywordEmbedder{vocabulary: []string{"create", "list", "get"}})
	require.NoError(t, index.Rebuild(context.Background(), reg.Manifest()))
	assert.Equal(t, 3, index.Len())

	short, err := index.Shortlist(context.Background(), "list things", reg.Manifest(), 2)
	require.NoError(t, err)
	require.Len(t, short, 2)
	assert.Equal(t, "list_accounts", short[0].Name)

	all, err := index.Shortlist(context.Background(), "anything", reg.Manifest(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestIndex_UnindexedToolsRankLast(t *testing.T) {
	index := NewIndex(keywordEmbedder{vocabulary: []string{"list"}})
	indexed := registry.ToolInfo{Name: "indexed", Summary: "list"}
	require.NoError(t, index.Rebuild(context.Background(), []registry.ToolInfo{indexed}))

	tools := []registry.ToolInfo{{Name: "fresh"}, indexed}
	short, err := index.Shortlist(context.Background(), "list", tools, 1)
	require.NoError(t, err)
	assert.Equal(t, "indexed", short[0].Name)
}

func TestIndex_RebuildFailureKeepsPrevious(t *testing.T) {
	reg := accountRegistry(t)
	index := NewIndex(keywordEmbedder{vocabulary: []string{"get"}})
	require.NoError(t, index.Rebuild(context.Background(), reg.Manifest()))

	index.embedder = keywordEmbedder{err: errors.New("down")}
	err := index.Rebuild(context.Background(), reg.Manifest()[:1])
	require.Error(t, err)
	assert.Equal(t, 3, index.Len())
}

func TestToolDocument(t *testing.T) {
	reg := accountRegistry(t)
	tool, ok := reg.Get("list_accounts")
	require.True(t, ok)

	doc := ToolDocument(tool.Info())
	assert.Contains(t, doc, "Operation: list_accounts")
	assert.Contains(t, doc, "Method: GET")
	assert.Contains(t, doc, "Parameter: limit in query (integer)")
}
