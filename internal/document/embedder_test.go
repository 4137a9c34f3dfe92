package document

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/aihub/docstore-go/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "hello world", normalizeInput("hello\nworld", 4000))
	assert.Equal(t, "abc", normalizeInput("  abc  ", 4000))
	assert.Equal(t, "", normalizeInput("  \n\n  ", 4000))

	// 超长输入按字符数截断
	long := strings.Repeat("a", 5000)
	assert.Len(t, normalizeInput(long, 4000), 4000)
}

func TestNoopEmbedder(t *testing.T) {
	embedder := &NoopEmbedder{}

	assert.False(t, embedder.Ready())
	assert.Equal(t, 0, embedder.Dimensions())

	_, err := embedder.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func newEmbeddingServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/pipeline/feature-extraction/")

		var req struct {
			Inputs []string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Inputs, 1)

		embeddings := make([][]float32, 1)
		embeddings[0] = make([]float32, dims)
		for i := range embeddings[0] {
			embeddings[0][i] = 0.1
		}
		json.NewEncoder(w).Encode(embeddings)
	}))
}

func TestHFEmbedder_Embed(t *testing.T) {
	server := newEmbeddingServer(t, 384)
	defer server.Close()

	client := inference.NewClient("test-token", server.URL, 5*time.Second)
	embedder := NewHFEmbedder(client, "", 384, 4000)
	require.True(t, embedder.Ready())

	embedding, err := embedder.Embed(context.Background(), "some document text")
	require.NoError(t, err)
	assert.Len(t, embedding, 384)
	assert.Equal(t, 384, embedder.Dimensions())
}

func TestHFEmbedder_DimensionMismatch(t *testing.T) {
	server := newEmbeddingServer(t, 3)
	defer server.Close()

	client := inference.NewClient("test-token", server.URL, 5*time.Second)
	embedder := NewHFEmbedder(client, "", 384, 4000)

	_, err := embedder.Embed(context.Background(), "some document text")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDimensionMismatch))
}

func TestHFEmbedder_EmptyInput(t *testing.T) {
	server := newEmbeddingServer(t, 384)
	defer server.Close()

	client := inference.NewClient("test-token", server.URL, 5*time.Second)
	embedder := NewHFEmbedder(client, "", 384, 4000)

	_, err := embedder.Embed(context.Background(), "   \n  ")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEmptyInput))
}

func TestNewHFEmbedder_FallsBackToNoop(t *testing.T) {
	// 没有API令牌时退化为Noop实现
	client := inference.NewClient("", "http://localhost", 5*time.Second)
	embedder := NewHFEmbedder(client, "", 384, 4000)
	assert.False(t, embedder.Ready())
}

func TestNewOpenAIEmbedder_FallsBackToNoop(t *testing.T) {
	embedder := NewOpenAIEmbedder("", "", 4000)
	assert.False(t, embedder.Ready())
}
