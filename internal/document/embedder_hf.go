package document

import (
	"context"

	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/aihub/docstore-go/internal/inference"
)

// HFEmbedder 使用Hugging Face特征提取API（基于统一推理客户端）
type HFEmbedder struct {
	client     *inference.Client
	model      string
	dimensions int
	maxChars   int
}

// NewHFEmbedder 创建Hugging Face嵌入向量生成器
func NewHFEmbedder(client *inference.Client, model string, dimensions, maxChars int) Embedder {
	if client == nil || !client.Ready() {
		return &NoopEmbedder{}
	}
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if dimensions == 0 {
		dimensions = 384
	}
	if maxChars == 0 {
		maxChars = 4000
	}

	return &HFEmbedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
		maxChars:   maxChars,
	}
}

func (e *HFEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeInput(text, e.maxChars)
	if clean == "" {
		return nil, apperrors.NewEmptyInputError()
	}

	// 单文本批量请求，第一个输入对应第一个向量
	embeddings, err := e.client.FeatureExtraction(ctx, e.model, []string{clean})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, apperrors.NewInvalidResponseError("embedding response empty")
	}

	embedding := embeddings[0]
	if len(embedding) != e.dimensions {
		return nil, apperrors.NewDimensionMismatchError(e.dimensions, len(embedding))
	}

	return embedding, nil
}

func (e *HFEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *HFEmbedder) Ready() bool {
	return e.client != nil && e.client.Ready()
}
