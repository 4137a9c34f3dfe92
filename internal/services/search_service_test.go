package services

import (
	"context"
	"testing"

	"github.com/aihub/docstore-go/internal/document"
	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addRecord(t *testing.T, store document.VectorStore, title string, embedding []float32) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, store.Add(context.Background(), document.Record{
		ID:        id,
		Text:      title + "\nbody for " + title,
		Metadata:  document.Metadata{Title: title, Description: "about " + title},
		Embedding: embedding,
	}))
	return id
}

func TestSearchService_Lookup(t *testing.T) {
	store := document.NewMemoryVectorStore()
	embedder := newStubEmbedder()
	embedder.vectors["query"] = []float32{1, 0, 0}
	service := NewSearchService(store, embedder)

	exact := addRecord(t, store, "exact", []float32{1, 0, 0})
	addRecord(t, store, "close", []float32{0.9, 0.1, 0})
	addRecord(t, store, "far", []float32{0, 1, 0})
	addRecord(t, store, "farther", []float32{0, 0, 1})

	results, err := service.Lookup(context.Background(), "query")
	require.NoError(t, err)

	// 最多3条，按相似度降序
	require.Len(t, results, 3)
	assert.Equal(t, exact, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
	assert.GreaterOrEqual(t, results[1].Similarity, results[2].Similarity)
}

func TestSearchService_LookupEmptyQuery(t *testing.T) {
	service := NewSearchService(document.NewMemoryVectorStore(), newStubEmbedder())

	_, err := service.Lookup(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEmptyInput))
}

func TestSearchService_LookupEmptyCollection(t *testing.T) {
	service := NewSearchService(document.NewMemoryVectorStore(), newStubEmbedder())

	results, err := service.Lookup(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_TopicsThresholdFilter(t *testing.T) {
	store := document.NewMemoryVectorStore()
	embedder := newStubEmbedder()
	embedder.vectors["topic"] = []float32{1, 0}
	service := NewSearchService(store, embedder)

	// 相似度分别约为 0.9 / 0.2 / 0.1 / 0.15
	kept1 := addRecord(t, store, "sim-090", []float32{0.9, float32(0.43589)})
	kept2 := addRecord(t, store, "sim-020", []float32{0.2, float32(0.9798)})
	dropped := addRecord(t, store, "sim-010", []float32{0.1, float32(0.99499)})
	kept3 := addRecord(t, store, "sim-015", []float32{0.15, float32(0.9885)})

	results, err := service.SearchTopics(context.Background(), "topic")
	require.NoError(t, err)

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
		assert.GreaterOrEqual(t, r.Similarity, 0.15)
	}
	assert.Contains(t, ids, kept1)
	assert.Contains(t, ids, kept2)
	assert.Contains(t, ids, kept3)
	assert.NotContains(t, ids, dropped)
}

func TestSearchService_TopicsContentTruncated(t *testing.T) {
	store := document.NewMemoryVectorStore()
	embedder := newStubEmbedder()
	service := NewSearchService(store, embedder)

	long := "Title\n"
	for i := 0; i < 200; i++ {
		long += "sentence repeated to exceed the content window. "
	}
	id := uuid.New().String()
	require.NoError(t, store.Add(context.Background(), document.Record{
		ID:        id,
		Text:      long,
		Metadata:  document.Metadata{Title: "Title"},
		Embedding: []float32{1, 0, 0},
	}))

	results, err := service.SearchTopics(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.LessOrEqual(t, len([]rune(results[0].Content)), resultContentChars)
}
