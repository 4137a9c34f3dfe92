package services

import (
	"bytes"
	"context"
	"strings"

	"github.com/aihub/docstore-go/internal/config"
	"github.com/aihub/docstore-go/internal/document"
	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/aihub/docstore-go/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService 文档服务，串联解析、元数据生成、向量化与存储
type DocumentService struct {
	store       document.VectorStore
	embedder    document.Embedder
	metadataGen document.MetadataGenerator
	parser      *document.FileParserManager
}

// DocumentInfo 文档信息
type DocumentInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text,omitempty"`
	Preview     string `json:"preview,omitempty"`
	Length      int    `json:"length"`
}

// UpdateDocumentRequest 文档更新请求，nil字段表示不修改
type UpdateDocumentRequest struct {
	Text        *string `json:"text"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CollectionStats 集合统计信息
type CollectionStats struct {
	Count         int     `json:"count"`
	AverageLength float64 `json:"average_length"`
}

// NewDocumentService 创建文档服务
func NewDocumentService(store document.VectorStore, embedder document.Embedder, metadataGen document.MetadataGenerator, parser *document.FileParserManager) *DocumentService {
	return &DocumentService{
		store:       store,
		embedder:    embedder,
		metadataGen: metadataGen,
		parser:      parser,
	}
}

// Create 从纯文本创建文档：生成向量与元数据后写入集合
func (s *DocumentService) Create(ctx context.Context, text string) (*DocumentInfo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewEmptyInputError()
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		logger.Error("failed to embed document", zap.Error(err))
		return nil, err
	}

	metadata, err := s.metadataGen.Generate(ctx, text)
	if err != nil {
		logger.Error("failed to generate metadata", zap.Error(err))
		return nil, err
	}

	record := document.Record{
		ID:        uuid.New().String(),
		Text:      text,
		Metadata:  metadata,
		Embedding: embedding,
	}
	if err := s.store.Add(ctx, record); err != nil {
		logger.Error("failed to store document", zap.String("id", record.ID), zap.Error(err))
		return nil, err
	}

	logger.Info("document created",
		zap.String("id", record.ID),
		zap.String("title", metadata.Title),
		zap.Int("length", len(text)))
	return s.toInfo(record, true), nil
}

// CreateFromFile 从上传文件创建文档：先按扩展名解析出正文再走创建流程
func (s *DocumentService) CreateFromFile(ctx context.Context, filename string, content []byte) (*DocumentInfo, error) {
	text, err := s.parser.ParseFile(bytes.NewReader(content), filename)
	if err != nil {
		logger.Error("failed to parse uploaded file", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}
	return s.Create(ctx, text)
}

// Get 获取单个文档
func (s *DocumentService) Get(ctx context.Context, id string) (*DocumentInfo, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toInfo(record, true), nil
}

// List 列出集合中的全部文档，正文以预览形式返回
func (s *DocumentService) List(ctx context.Context) ([]*DocumentInfo, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*DocumentInfo, 0, len(records))
	for _, record := range records {
		infos = append(infos, s.toInfo(record, false))
	}
	return infos, nil
}

// Update 更新文档。正文变更会重新生成向量和元数据，
// 显式提供的标题和描述覆盖自动生成结果，全部变更一次性提交。
func (s *DocumentService) Update(ctx context.Context, id string, req UpdateDocumentRequest) (*DocumentInfo, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := document.UpdateFields{}
	metadata := record.Metadata

	if req.Text != nil {
		if strings.TrimSpace(*req.Text) == "" {
			return nil, apperrors.NewEmptyInputError()
		}

		embedding, err := s.embedder.Embed(ctx, *req.Text)
		if err != nil {
			logger.Error("failed to re-embed document", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		regenerated, err := s.metadataGen.Generate(ctx, *req.Text)
		if err != nil {
			logger.Error("failed to regenerate metadata", zap.String("id", id), zap.Error(err))
			return nil, err
		}

		fields.Text = req.Text
		fields.Embedding = embedding
		metadata = regenerated
	}

	if req.Title != nil {
		metadata.Title = *req.Title
	}
	if req.Description != nil {
		metadata.Description = *req.Description
	}
	fields.Metadata = &metadata

	if err := s.store.Update(ctx, id, fields); err != nil {
		logger.Error("failed to update document", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	logger.Info("document updated", zap.String("id", id), zap.Bool("text_changed", req.Text != nil))
	return s.Get(ctx, id)
}

// Delete 删除文档
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("document deleted", zap.String("id", id))
	return nil
}

// Stats 集合统计：文档总数与平均正文长度
func (s *DocumentService) Stats(ctx context.Context) (*CollectionStats, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CollectionStats{Count: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	total := 0
	for _, record := range records {
		total += len([]rune(record.Text))
	}
	stats.AverageLength = float64(total) / float64(len(records))
	return stats, nil
}

// SupportedFormats 支持的上传文件格式
func (s *DocumentService) SupportedFormats() []string {
	return s.parser.SupportedFormats()
}

// Ready 依赖就绪状态
func (s *DocumentService) Ready() map[string]bool {
	return map[string]bool{
		"vector_store": s.store.Ready(),
		"embedder":     s.embedder.Ready(),
		"metadata":     s.metadataGen.Ready(),
	}
}

const defaultPreviewChars = 200

func previewLimit() int {
	if cfg := config.GetAppConfig(); cfg != nil && cfg.FileUpload.PreviewChars > 0 {
		return cfg.FileUpload.PreviewChars
	}
	return defaultPreviewChars
}

func (s *DocumentService) toInfo(record document.Record, fullText bool) *DocumentInfo {
	info := &DocumentInfo{
		ID:          record.ID,
		Title:       record.Metadata.Title,
		Description: record.Metadata.Description,
		Length:      len([]rune(record.Text)),
	}
	if fullText {
		info.Text = record.Text
	} else {
		limit := previewLimit()
		runes := []rune(record.Text)
		if len(runes) > limit {
			info.Preview = string(runes[:limit])
		} else {
			info.Preview = record.Text
		}
	}
	return info
}
