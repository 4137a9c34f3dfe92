package document

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/aihub/docstore-go/internal/errors"
)

// memoryVectorStore 进程内向量存储，对全量记录做精确余弦最近邻检索。
// 集合规模不大时不需要ANN索引，接口上也不排除换成带索引的实现。
type memoryVectorStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryVectorStore 创建内存向量存储
func NewMemoryVectorStore() VectorStore {
	return &memoryVectorStore{
		records: make(map[string]Record),
	}
}

func (s *memoryVectorStore) Add(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 相同文本不同ID允许重复插入，集合不做去重
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *memoryVectorStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return Record{}, apperrors.NewNotFoundError("document")
	}
	return cloneRecord(record), nil
}

func (s *memoryVectorStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, cloneRecord(record))
	}
	// 按ID排序保证输出稳定
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (s *memoryVectorStore) Update(ctx context.Context, id string, fields UpdateFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return apperrors.NewNotFoundError("document")
	}

	// 正文和向量必须一起换，防止留下过期向量
	if fields.Text != nil {
		if len(fields.Embedding) == 0 {
			return apperrors.NewValidationError("text update requires a regenerated embedding")
		}
		record.Text = *fields.Text
		record.Embedding = append([]float32(nil), fields.Embedding...)
	}
	if fields.Metadata != nil {
		record.Metadata = *fields.Metadata
	}

	s.records[id] = record
	return nil
}

func (s *memoryVectorStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return apperrors.NewNotFoundError("document")
	}
	delete(s.records, id)
	return nil
}

func (s *memoryVectorStore) Query(ctx context.Context, embedding []float32, limit int) ([]QueryMatch, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]QueryMatch, 0, len(s.records))
	for _, record := range s.records {
		matches = append(matches, QueryMatch{
			Record:   cloneRecord(record),
			Distance: 1 - CosineSimilarity(embedding, record.Embedding),
		})
	}

	// 距离升序，最相似的在前；距离相同时按ID保证稳定
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance == matches[j].Distance {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *memoryVectorStore) Ready() bool {
	return true
}

func (s *memoryVectorStore) Close() error {
	return nil
}

func cloneRecord(record Record) Record {
	clone := record
	clone.Embedding = append([]float32(nil), record.Embedding...)
	return clone
}
