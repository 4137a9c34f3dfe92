package services

import (
	"context"
	"testing"

	"github.com/aihub/docstore-go/internal/document"
	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder 按预置映射返回向量，未命中时返回默认向量
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	calls    int
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0, 0},
	}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if v, ok := s.vectors[text]; ok {
		return append([]float32(nil), v...), nil
	}
	return append([]float32(nil), s.fallback...), nil
}

func (s *stubEmbedder) Dimensions() int { return len(s.fallback) }
func (s *stubEmbedder) Ready() bool     { return true }

// stubMetadataGenerator 本地派生标题，描述为固定值
type stubMetadataGenerator struct {
	description string
	calls       int
}

func (s *stubMetadataGenerator) Generate(ctx context.Context, text string) (document.Metadata, error) {
	s.calls++
	desc := s.description
	if desc == "" {
		desc = "stub description"
	}
	return document.Metadata{
		Title:       document.DeriveTitle(text),
		Description: desc,
	}, nil
}

func (s *stubMetadataGenerator) Ready() bool { return true }

func newTestDocumentService() (*DocumentService, *stubEmbedder, *stubMetadataGenerator) {
	embedder := newStubEmbedder()
	metadataGen := &stubMetadataGenerator{}
	service := NewDocumentService(
		document.NewMemoryVectorStore(),
		embedder,
		metadataGen,
		document.NewFileParserManager(),
	)
	return service, embedder, metadataGen
}

func TestDocumentService_CreateAndGet(t *testing.T) {
	service, _, _ := newTestDocumentService()
	ctx := context.Background()

	doc, err := service.Create(ctx, "Project Plan\nDetails of the rollout.")
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	assert.Equal(t, "Project Plan", doc.Title)
	assert.Equal(t, "stub description", doc.Description)

	got, err := service.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "Project Plan\nDetails of the rollout.", got.Text)
}

func TestDocumentService_CreateEmptyText(t *testing.T) {
	service, _, _ := newTestDocumentService()

	_, err := service.Create(context.Background(), "   \n  ")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEmptyInput))
}

func TestDocumentService_CreateFromFile(t *testing.T) {
	service, _, _ := newTestDocumentService()

	doc, err := service.CreateFromFile(context.Background(), "plan.txt", []byte("File Title\nfile body"))
	require.NoError(t, err)
	assert.Equal(t, "File Title", doc.Title)
}

func TestDocumentService_CreateFromFileUnsupported(t *testing.T) {
	service, _, _ := newTestDocumentService()

	_, err := service.CreateFromFile(context.Background(), "image.png", []byte("data"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))
}

func TestDocumentService_UpdateTextRegeneratesDerivedFields(t *testing.T) {
	service, embedder, metadataGen := newTestDocumentService()
	ctx := context.Background()

	doc, err := service.Create(ctx, "Old Title\nold body")
	require.NoError(t, err)

	embedCalls := embedder.calls
	metaCalls := metadataGen.calls

	newText := "New Title\nnew body"
	updated, err := service.Update(ctx, doc.ID, UpdateDocumentRequest{Text: &newText})
	require.NoError(t, err)

	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, newText, updated.Text)
	// 正文变更必须触发向量与元数据重新生成
	assert.Equal(t, embedCalls+1, embedder.calls)
	assert.Equal(t, metaCalls+1, metadataGen.calls)
}

func TestDocumentService_UpdateTitleOverride(t *testing.T) {
	service, embedder, _ := newTestDocumentService()
	ctx := context.Background()

	doc, err := service.Create(ctx, "Derived Title\nbody")
	require.NoError(t, err)

	embedCalls := embedder.calls
	title := "Manual Title"
	updated, err := service.Update(ctx, doc.ID, UpdateDocumentRequest{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Manual Title", updated.Title)
	// 仅改元数据不重新向量化
	assert.Equal(t, embedCalls, embedder.calls)
}

func TestDocumentService_UpdateTextWithTitleOverride(t *testing.T) {
	service, _, _ := newTestDocumentService()
	ctx := context.Background()

	doc, err := service.Create(ctx, "Original\nbody")
	require.NoError(t, err)

	// 同时改正文和标题时，显式标题覆盖自动派生结果
	newText := "Regenerated Title\nnew body"
	title := "Explicit Title"
	updated, err := service.Update(ctx, doc.ID, UpdateDocumentRequest{Text: &newText, Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Explicit Title", updated.Title)
	assert.Equal(t, newText, updated.Text)
}

func TestDocumentService_UpdateMissing(t *testing.T) {
	service, _, _ := newTestDocumentService()

	title := "x"
	_, err := service.Update(context.Background(), "absent", UpdateDocumentRequest{Title: &title})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestDocumentService_DeleteMissing(t *testing.T) {
	service, _, _ := newTestDocumentService()

	err := service.Delete(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestDocumentService_ListPreview(t *testing.T) {
	service, _, _ := newTestDocumentService()
	ctx := context.Background()

	long := "Title line\n"
	for i := 0; i < 100; i++ {
		long += "padding sentence to exceed the preview window. "
	}
	_, err := service.Create(ctx, long)
	require.NoError(t, err)

	docs, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Text)
	assert.NotEmpty(t, docs[0].Preview)
	assert.LessOrEqual(t, len([]rune(docs[0].Preview)), 200)
}

func TestDocumentService_Stats(t *testing.T) {
	service, _, _ := newTestDocumentService()
	ctx := context.Background()

	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.AverageLength)

	_, err = service.Create(ctx, "ab")
	require.NoError(t, err)
	_, err = service.Create(ctx, "abcd")
	require.NoError(t, err)

	stats, err = service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 3.0, stats.AverageLength, 1e-9)
}
