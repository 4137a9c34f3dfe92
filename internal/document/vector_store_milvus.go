package document

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/aihub/docstore-go/internal/logger"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Database   string
	VectorSize int
	UseTLS     bool
	Timeout    time.Duration
}

type milvusVectorStore struct {
	milvusClient client.Client
	collection   string
	vectorSize   int
}

// NewMilvusVectorStore 创建Milvus向量存储
func NewMilvusVectorStore(opts MilvusOptions) (VectorStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = "documents"
	}
	if opts.Database == "" {
		opts.Database = "default"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 384
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	milvusClient, err := client.NewClient(ctx, client.Config{
		Address:       opts.Address,
		DBName:        opts.Database,
		Username:      opts.Username,
		Password:      opts.Password,
		EnableTLSAuth: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	store := &milvusVectorStore{
		milvusClient: milvusClient,
		collection:   opts.Collection,
		vectorSize:   opts.VectorSize,
	}

	if err := store.ensureCollection(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *milvusVectorStore) ensureCollection(ctx context.Context) error {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if hasCollection {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: s.collection,
		Description:    "document records with embeddings",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "title",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "description",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "2048",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.vectorSize),
				},
			},
		},
	}

	if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// 创建索引，HNSW失败时回退IVF_FLAT
	var index entity.Index
	var indexErr error
	index, indexErr = entity.NewIndexHNSW(entity.COSINE, 8, 64)
	if indexErr != nil {
		index, indexErr = entity.NewIndexIvfFlat(entity.COSINE, 128)
		if indexErr != nil {
			return fmt.Errorf("failed to create index: %w", indexErr)
		}
	}
	if err := s.milvusClient.CreateIndex(ctx, s.collection, "vector", index, false); err != nil {
		// 索引创建失败不影响使用，只记录警告
		logger.Warn("failed to create milvus index", zap.String("collection", s.collection), zap.Error(err))
	}

	if err := s.milvusClient.LoadCollection(ctx, s.collection, false); err != nil {
		logger.Warn("failed to load milvus collection", zap.String("collection", s.collection), zap.Error(err))
	}

	return nil
}

func (s *milvusVectorStore) Add(ctx context.Context, record Record) error {
	if len(record.Embedding) != s.vectorSize {
		return apperrors.NewDimensionMismatchError(s.vectorSize, len(record.Embedding))
	}

	if _, err := s.milvusClient.Insert(ctx, s.collection, "", s.recordColumns(record)...); err != nil {
		return fmt.Errorf("milvus insert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		// 刷新失败不影响插入，只记录警告
		logger.Warn("failed to flush milvus collection", zap.String("collection", s.collection), zap.Error(err))
	}

	return nil
}

func (s *milvusVectorStore) Get(ctx context.Context, id string) (Record, error) {
	records, err := s.query(ctx, fmt.Sprintf("id == %q", id))
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, apperrors.NewNotFoundError("document")
	}
	return records[0], nil
}

func (s *milvusVectorStore) List(ctx context.Context) ([]Record, error) {
	return s.query(ctx, `id != ""`)
}

func (s *milvusVectorStore) query(ctx context.Context, expr string) ([]Record, error) {
	resultSet, err := s.milvusClient.Query(ctx, s.collection, nil, expr,
		[]string{"id", "text", "title", "description", "vector"})
	if err != nil {
		return nil, fmt.Errorf("milvus query failed: %w", err)
	}

	var (
		ids          []string
		texts        []string
		titles       []string
		descriptions []string
		vectors      [][]float32
	)
	for _, column := range resultSet {
		switch column.Name() {
		case "id":
			if val, ok := column.(*entity.ColumnVarChar); ok {
				ids = val.Data()
			}
		case "text":
			if val, ok := column.(*entity.ColumnVarChar); ok {
				texts = val.Data()
			}
		case "title":
			if val, ok := column.(*entity.ColumnVarChar); ok {
				titles = val.Data()
			}
		case "description":
			if val, ok := column.(*entity.ColumnVarChar); ok {
				descriptions = val.Data()
			}
		case "vector":
			if val, ok := column.(*entity.ColumnFloatVector); ok {
				vectors = val.Data()
			}
		}
	}

	records := make([]Record, 0, len(ids))
	for i := range ids {
		record := Record{ID: ids[i]}
		if i < len(texts) {
			record.Text = texts[i]
		}
		if i < len(titles) {
			record.Metadata.Title = titles[i]
		}
		if i < len(descriptions) {
			record.Metadata.Description = descriptions[i]
		}
		if i < len(vectors) {
			record.Embedding = vectors[i]
		}
		records = append(records, record)
	}

	return records, nil
}

func (s *milvusVectorStore) Update(ctx context.Context, id string, fields UpdateFields) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if fields.Text != nil {
		if len(fields.Embedding) == 0 {
			return apperrors.NewValidationError("text update requires a regenerated embedding")
		}
		record.Text = *fields.Text
		record.Embedding = fields.Embedding
	}
	if fields.Metadata != nil {
		record.Metadata = *fields.Metadata
	}

	if len(record.Embedding) != s.vectorSize {
		return apperrors.NewDimensionMismatchError(s.vectorSize, len(record.Embedding))
	}

	// Upsert按主键整条替换，避免删除加重插留下中间状态
	if _, err := s.milvusClient.Upsert(ctx, s.collection, "", s.recordColumns(record)...); err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		logger.Warn("failed to flush after upsert", zap.String("collection", s.collection), zap.Error(err))
	}

	return nil
}

func (s *milvusVectorStore) recordColumns(record Record) []entity.Column {
	return []entity.Column{
		entity.NewColumnVarChar("id", []string{record.ID}),
		entity.NewColumnVarChar("text", []string{record.Text}),
		entity.NewColumnVarChar("title", []string{record.Metadata.Title}),
		entity.NewColumnVarChar("description", []string{record.Metadata.Description}),
		entity.NewColumnFloatVector("vector", s.vectorSize, [][]float32{record.Embedding}),
	}
}

func (s *milvusVectorStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.deleteByID(ctx, id)
}

func (s *milvusVectorStore) deleteByID(ctx context.Context, id string) error {
	expr := fmt.Sprintf("id == %q", id)
	if err := s.milvusClient.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete failed: %w", err)
	}
	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		logger.Warn("failed to flush after delete", zap.Error(err))
	}
	return nil
}

func (s *milvusVectorStore) Query(ctx context.Context, embedding []float32, limit int) ([]QueryMatch, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	queryVector := entity.FloatVector(embedding)
	searchResults, err := s.milvusClient.Search(
		ctx,
		s.collection,
		[]string{},
		"",
		[]string{"text", "title", "description", "vector"},
		[]entity.Vector{queryVector},
		"vector",
		entity.COSINE,
		limit,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	if len(searchResults) == 0 {
		return []QueryMatch{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, fmt.Errorf("milvus search error: %w", result.Err)
	}
	if result.ResultCount == 0 {
		return []QueryMatch{}, nil
	}

	var ids []string
	if idCol, ok := result.IDs.(*entity.ColumnVarChar); ok {
		ids = idCol.Data()
	}

	var (
		texts        []string
		titles       []string
		descriptions []string
		vectors      [][]float32
	)
	for _, field := range result.Fields {
		switch field.Name() {
		case "text":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				texts = val.Data()
			}
		case "title":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				titles = val.Data()
			}
		case "description":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				descriptions = val.Data()
			}
		case "vector":
			if val, ok := field.(*entity.ColumnFloatVector); ok {
				vectors = val.Data()
			}
		}
	}

	matches := make([]QueryMatch, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		match := QueryMatch{}
		if i < len(ids) {
			match.ID = ids[i]
		}
		if i < len(texts) {
			match.Text = texts[i]
		}
		if i < len(titles) {
			match.Metadata.Title = titles[i]
		}
		if i < len(descriptions) {
			match.Metadata.Description = descriptions[i]
		}
		if i < len(vectors) {
			match.Embedding = vectors[i]
		}
		if i < len(result.Scores) {
			// COSINE度量返回相似度得分，转换为距离保持升序语义
			match.Distance = 1 - float64(result.Scores[i])
		}
		matches = append(matches, match)
	}

	return matches, nil
}

func (s *milvusVectorStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}

func (s *milvusVectorStore) Close() error {
	if s.milvusClient == nil {
		return nil
	}
	return s.milvusClient.Close()
}
