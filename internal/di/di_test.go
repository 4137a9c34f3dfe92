package di

import (
	"testing"

	"github.com/aihub/docstore-go/internal/config"
	"github.com/aihub/docstore-go/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyInjectionContainer(t *testing.T) {
	// 初始化DI容器
	container := InitContainer()
	assert.NotNil(t, container)

	// 验证容器已创建
	assert.NotNil(t, Container)
}

func TestContainerBasicOperations(t *testing.T) {
	container := InitContainer()

	// 测试基本的Provide操作
	type TestService struct {
		Name string
	}

	err := container.Provide(func() *TestService {
		return &TestService{Name: "test"}
	})
	require.NoError(t, err)

	// 测试基本的Invoke操作
	err = container.Invoke(func(svc *TestService) {
		assert.Equal(t, "test", svc.Name)
	})
	assert.NoError(t, err)
}

func TestProviders_OpenAIEmbedderUsesOwnModel(t *testing.T) {
	original := config.AppConfig
	defer func() { config.AppConfig = original }()

	// openai提供方使用独立的模型配置，维度由模型决定而非hf默认的384
	config.AppConfig = &config.Config{
		Inference: config.InferenceConfig{BaseURL: "http://inference.local", TimeoutSeconds: 5},
		Embedding: config.EmbeddingConfig{
			Provider:     "openai",
			Model:        "sentence-transformers/all-MiniLM-L6-v2",
			Dimensions:   384,
			MaxChars:     4000,
			OpenAIAPIKey: "test-key",
			OpenAIModel:  "text-embedding-3-small",
		},
		VectorStore: config.VectorStoreConfig{Provider: "memory"},
	}

	container := InitContainer()
	require.NoError(t, RegisterProviders(container))

	err := container.Invoke(func(embedder document.Embedder) {
		assert.Equal(t, 1536, embedder.Dimensions())
	})
	require.NoError(t, err)
}
