package document

import (
	"context"
	"errors"
	"strings"
)

// Embedder 定义文本向量化接口
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Ready() bool
}

// NoopEmbedder 默认占位实现
type NoopEmbedder struct{}

func (n *NoopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding provider not configured")
}

func (n *NoopEmbedder) Dimensions() int {
	return 0
}

func (n *NoopEmbedder) Ready() bool {
	return false
}

// normalizeInput 向量化前的输入预处理：截断、换行转空格、去除首尾空白
func normalizeInput(text string, maxChars int) string {
	runes := []rune(text)
	if maxChars > 0 && len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	clean := strings.ReplaceAll(string(runes), "\n", " ")
	return strings.TrimSpace(clean)
}
