package services

import (
	"context"
	"strings"

	"github.com/aihub/docstore-go/internal/document"
	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/aihub/docstore-go/internal/logger"
	"go.uber.org/zap"
)

const (
	lookupTopK         = 3
	topicTopK          = 10
	topicSimilarityMin = 0.15
	resultContentChars = 500
)

// SearchService 语义搜索服务
type SearchService struct {
	store    document.VectorStore
	embedder document.Embedder
}

// SearchResult 搜索结果
type SearchResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Content     string  `json:"content"`
	Similarity  float64 `json:"similarity"`
}

// NewSearchService 创建搜索服务
func NewSearchService(store document.VectorStore, embedder document.Embedder) *SearchService {
	return &SearchService{
		store:    store,
		embedder: embedder,
	}
}

// Lookup 精确查找：返回与查询最相似的前3条文档，按相似度降序
func (s *SearchService) Lookup(ctx context.Context, query string) ([]SearchResult, error) {
	queryEmbedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Query(ctx, queryEmbedding, lookupTopK)
	if err != nil {
		logger.Error("lookup query failed", zap.Error(err))
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, s.toResult(match.Record, queryEmbedding))
	}

	logger.Info("lookup search completed", zap.Int("results", len(results)))
	return results, nil
}

// SearchTopics 主题搜索：取前10条候选，按余弦相似度过滤，
// 低于0.15的丢弃，保留存储返回的候选顺序。
func (s *SearchService) SearchTopics(ctx context.Context, query string) ([]SearchResult, error) {
	queryEmbedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Query(ctx, queryEmbedding, topicTopK)
	if err != nil {
		logger.Error("topic query failed", zap.Error(err))
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		result := s.toResult(match.Record, queryEmbedding)
		if result.Similarity < topicSimilarityMin {
			continue
		}
		results = append(results, result)
	}

	logger.Info("topic search completed",
		zap.Int("candidates", len(matches)),
		zap.Int("results", len(results)))
	return results, nil
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewEmptyInputError()
	}
	return s.embedder.Embed(ctx, query)
}

// toResult 统一用本地余弦相似度计算得分，不依赖存储各自的距离度量
func (s *SearchService) toResult(record document.Record, queryEmbedding []float32) SearchResult {
	content := record.Text
	runes := []rune(content)
	if len(runes) > resultContentChars {
		content = string(runes[:resultContentChars])
	}
	return SearchResult{
		ID:          record.ID,
		Title:       record.Metadata.Title,
		Description: record.Metadata.Description,
		Content:     content,
		Similarity:  document.CosineSimilarity(queryEmbedding, record.Embedding),
	}
}
