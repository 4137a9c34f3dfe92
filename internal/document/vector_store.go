package document

import (
	"context"
	"math"
)

// Record 向量集合中的一条文档记录
type Record struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Metadata  Metadata  `json:"metadata"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// QueryMatch 最近邻查询结果，Distance为集合自身的距离度量（升序，越小越相似）
type QueryMatch struct {
	Record
	Distance float64 `json:"distance"`
}

// UpdateFields 部分更新字段。Text与Embedding必须同时提供，
// 避免更新正文后留下过期向量。
type UpdateFields struct {
	Text      *string
	Embedding []float32
	Metadata  *Metadata
}

// VectorStore 向量存储抽象
type VectorStore interface {
	Add(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Update(ctx context.Context, id string, fields UpdateFields) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, embedding []float32, limit int) ([]QueryMatch, error)
	Ready() bool
	Close() error
}

// CosineSimilarity 计算两个向量的余弦相似度 dot/(‖a‖·‖b‖)，范围[-1,1]
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
