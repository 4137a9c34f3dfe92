package di

import (
	"fmt"
	"time"

	"github.com/aihub/docstore-go/internal/config"
	"github.com/aihub/docstore-go/internal/document"
	"github.com/aihub/docstore-go/internal/inference"
	"github.com/aihub/docstore-go/internal/services"
	"go.uber.org/dig"
)

// RegisterProviders 注册所有依赖提供者
func RegisterProviders(container *dig.Container) error {
	// 注册配置
	if err := container.Provide(func() (*config.Config, error) {
		cfg := config.GetAppConfig()
		if cfg == nil {
			return nil, fmt.Errorf("config not loaded")
		}
		return cfg, nil
	}); err != nil {
		return err
	}

	// 注册推理客户端
	if err := container.Provide(func(cfg *config.Config) *inference.Client {
		timeout := time.Duration(cfg.Inference.TimeoutSeconds) * time.Second
		return inference.NewClient(cfg.Inference.APIToken, cfg.Inference.BaseURL, timeout)
	}); err != nil {
		return err
	}

	// 注册嵌入向量生成器，按配置选择提供方
	if err := container.Provide(func(cfg *config.Config, client *inference.Client) document.Embedder {
		if cfg.Embedding.Provider == "openai" {
			return document.NewOpenAIEmbedder(cfg.Embedding.OpenAIAPIKey, cfg.Embedding.OpenAIModel, cfg.Embedding.MaxChars)
		}
		return document.NewHFEmbedder(client, cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.MaxChars)
	}); err != nil {
		return err
	}

	// 注册元数据生成器
	if err := container.Provide(func(cfg *config.Config, client *inference.Client) document.MetadataGenerator {
		return document.NewInferenceMetadataGenerator(client, document.SummaryOptions{
			Model:             cfg.Summary.Model,
			MaxNewTokens:      cfg.Summary.MaxNewTokens,
			Temperature:       cfg.Summary.Temperature,
			RepetitionPenalty: cfg.Summary.RepetitionPenalty,
			PromptChars:       cfg.Summary.PromptChars,
			MaxRetries:        cfg.Summary.MaxRetries,
		})
	}); err != nil {
		return err
	}

	// 注册向量存储，按配置选择提供方。集合维度跟随实际使用的嵌入生成器
	if err := container.Provide(func(cfg *config.Config, embedder document.Embedder) (document.VectorStore, error) {
		if cfg.VectorStore.Provider == "milvus" {
			vectorSize := embedder.Dimensions()
			if vectorSize == 0 {
				vectorSize = cfg.Embedding.Dimensions
			}
			return document.NewMilvusVectorStore(document.MilvusOptions{
				Address:    cfg.VectorStore.Milvus.Address,
				Username:   cfg.VectorStore.Milvus.Username,
				Password:   cfg.VectorStore.Milvus.Password,
				Collection: cfg.VectorStore.Milvus.Collection,
				Database:   cfg.VectorStore.Milvus.Database,
				VectorSize: vectorSize,
				UseTLS:     cfg.VectorStore.Milvus.TLS,
			})
		}
		return document.NewMemoryVectorStore(), nil
	}); err != nil {
		return err
	}

	// 注册文件解析器
	if err := container.Provide(document.NewFileParserManager); err != nil {
		return err
	}

	// 注册服务
	if err := container.Provide(services.NewDocumentService); err != nil {
		return err
	}

	if err := container.Provide(services.NewSearchService); err != nil {
		return err
	}

	return nil
}
