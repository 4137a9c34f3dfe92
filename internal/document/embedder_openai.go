package document

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/aihub/docstore-go/internal/errors"
	openai "github.com/sashabaranov/go-openai"
)

var openaiEmbeddingDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder 使用OpenAI Embedding API（备选提供方）
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	maxChars   int
}

// NewOpenAIEmbedder 创建OpenAI嵌入向量生成器
func NewOpenAIEmbedder(apiKey, model string, maxChars int) Embedder {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &NoopEmbedder{}
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if maxChars == 0 {
		maxChars = 4000
	}

	dims, ok := openaiEmbeddingDimensions[model]
	if !ok {
		dims = 1536
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: dims,
		maxChars:   maxChars,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeInput(text, e.maxChars)
	if clean == "" {
		return nil, apperrors.NewEmptyInputError()
	}
	if e.client == nil {
		return nil, errors.New("openai client not initialized")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{clean},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.NewInvalidResponseError("embedding response empty")
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != e.dimensions {
		return nil, apperrors.NewDimensionMismatchError(e.dimensions, len(embedding))
	}

	result := make([]float32, len(embedding))
	copy(result, embedding)
	return result, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *OpenAIEmbedder) Ready() bool {
	return e.client != nil
}
