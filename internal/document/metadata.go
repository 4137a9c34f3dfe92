package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/aihub/docstore-go/internal/inference"
	"github.com/aihub/docstore-go/internal/logger"
	"go.uber.org/zap"
)

// Metadata 文档的派生元数据，必须与文档内容保持一致
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// titleMaxLen 标题最大长度（字符数）
const titleMaxLen = 100

// titleFallbackWords 标题回退时取的词数
const titleFallbackWords = 8

// untitledPlaceholder 无法派生标题时的占位符
const untitledPlaceholder = "untitled document"

// DeriveTitle 从文档开头启发式派生标题，本地计算不走网络。
// 跳过开头的空白后取第一行并压缩内部空白；超过100字符时在词边界截断并追加省略号；
// 没有可用行时回退为前8个词；仍为空则返回固定占位符。
func DeriveTitle(text string) string {
	line := strings.TrimLeft(text, " \t\r\n")
	if idx := strings.IndexAny(line, "\r\n"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.Join(strings.Fields(line), " ")

	if line != "" {
		runes := []rune(line)
		if len(runes) <= titleMaxLen {
			return line
		}
		// 在最后一个完整词边界截断
		cut := string(runes[:titleMaxLen])
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		return cut + "..."
	}

	// 回退：取正文前几个词
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) > titleFallbackWords {
		words = words[:titleFallbackWords]
	}
	if len(words) > 0 {
		return strings.Join(words, " ")
	}

	return untitledPlaceholder
}

// MetadataGenerator 元数据生成接口
type MetadataGenerator interface {
	Generate(ctx context.Context, text string) (Metadata, error)
	Ready() bool
}

// SummaryOptions 摘要生成参数
type SummaryOptions struct {
	Model             string
	MaxNewTokens      int
	Temperature       float64
	RepetitionPenalty float64
	PromptChars       int
	MaxRetries        int
}

// InferenceMetadataGenerator 基于推理API的元数据生成器
type InferenceMetadataGenerator struct {
	client *inference.Client
	opts   SummaryOptions
}

// NewInferenceMetadataGenerator 创建元数据生成器
func NewInferenceMetadataGenerator(client *inference.Client, opts SummaryOptions) *InferenceMetadataGenerator {
	if opts.Model == "" {
		opts.Model = "deepseek-ai/DeepSeek-R1-Distill-Qwen-32B"
	}
	if opts.MaxNewTokens == 0 {
		opts.MaxNewTokens = 150
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.RepetitionPenalty == 0 {
		opts.RepetitionPenalty = 1.2
	}
	if opts.PromptChars == 0 {
		opts.PromptChars = 200
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	return &InferenceMetadataGenerator{
		client: client,
		opts:   opts,
	}
}

// Generate 派生标题和描述。标题为本地启发式，描述调用文本生成服务。
func (g *InferenceMetadataGenerator) Generate(ctx context.Context, text string) (Metadata, error) {
	description, err := g.generateDescription(ctx, text)
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		Title:       DeriveTitle(text),
		Description: description,
	}, nil
}

// generateDescription 调用文本生成服务派生描述。
// 超时类失败带退避重试，其他失败立即放弃。
func (g *InferenceMetadataGenerator) generateDescription(ctx context.Context, text string) (string, error) {
	if g.client == nil {
		return "", errors.New("inference client not initialized")
	}

	prompt := g.buildPrompt(text)
	req := inference.GenerationRequest{
		Inputs: prompt,
		Parameters: inference.GenerationParameters{
			MaxNewTokens:      g.opts.MaxNewTokens,
			Temperature:       g.opts.Temperature,
			RepetitionPenalty: g.opts.RepetitionPenalty,
		},
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < g.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying description generation",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return "", apperrors.NewTransientGenerationError(ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		raw, err := g.client.TextGeneration(ctx, g.opts.Model, req)
		if err == nil {
			return cleanGeneratedText(raw), nil
		}

		if inference.IsTimeout(err) {
			lastErr = apperrors.NewTransientGenerationError(err)
			continue
		}
		return "", apperrors.NewGenerationError(err)
	}

	if lastErr == nil {
		lastErr = apperrors.NewTransientGenerationError(errors.New("retries exhausted"))
	}
	return "", lastErr
}

func (g *InferenceMetadataGenerator) buildPrompt(text string) string {
	runes := []rune(text)
	if len(runes) > g.opts.PromptChars {
		runes = runes[:g.opts.PromptChars]
	}
	return fmt.Sprintf("Generate a short description of the following text:\n%s\n", string(runes))
}

// cleanGeneratedText 取原始响应的第一行并去掉已知的标签前缀
func cleanGeneratedText(raw string) string {
	line := raw
	if idx := strings.Index(line, "\n"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"**Summary:**", "**Description:**"} {
		line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
	}
	return line
}

// Ready 检查生成器是否就绪
func (g *InferenceMetadataGenerator) Ready() bool {
	return g.client != nil && g.client.Ready()
}
