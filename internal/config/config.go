package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Inference   InferenceConfig   `mapstructure:"inference" validate:"required"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding" validate:"required"`
	Summary     SummaryConfig     `mapstructure:"summary" validate:"required"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store" validate:"required"`
	FileUpload  FileUploadConfig  `mapstructure:"file_upload"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Env  string `mapstructure:"env" validate:"required,oneof=development staging production"`
}

// InferenceConfig 推理API配置（文本生成与向量化共用一个网关）
type InferenceConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	APIToken       string `mapstructure:"api_token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

type EmbeddingConfig struct {
	Provider     string `mapstructure:"provider" validate:"required,oneof=hf openai"`
	Model        string `mapstructure:"model" validate:"required"`
	Dimensions   int    `mapstructure:"dimensions" validate:"gt=0"`
	MaxChars     int    `mapstructure:"max_chars" validate:"gt=0"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	OpenAIModel  string `mapstructure:"openai_model"`
}

type SummaryConfig struct {
	Model             string  `mapstructure:"model" validate:"required"`
	MaxNewTokens      int     `mapstructure:"max_new_tokens" validate:"gt=0"`
	Temperature       float64 `mapstructure:"temperature" validate:"gte=0"`
	RepetitionPenalty float64 `mapstructure:"repetition_penalty" validate:"gte=1"`
	PromptChars       int     `mapstructure:"prompt_chars" validate:"gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=1"`
}

type VectorStoreConfig struct {
	Provider string       `mapstructure:"provider" validate:"required,oneof=memory milvus"`
	Milvus   MilvusConfig `mapstructure:"milvus"`
}

type MilvusConfig struct {
	Address    string `mapstructure:"address"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Collection string `mapstructure:"collection"`
	Database   string `mapstructure:"database"`
	TLS        bool   `mapstructure:"tls"`
}

type FileUploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	PreviewChars int      `mapstructure:"preview_chars"`
}

var AppConfig *Config

func LoadConfig() error {
	// 设置默认值
	viper.SetDefault("server.port", "8002")
	viper.SetDefault("server.env", "development")

	// 推理API默认值（Hugging Face Inference API）
	viper.SetDefault("inference.base_url", "https://api-inference.huggingface.co")
	viper.SetDefault("inference.timeout_seconds", 60)

	// 向量化配置默认值
	viper.SetDefault("embedding.provider", "hf")
	viper.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	viper.SetDefault("embedding.dimensions", 384)
	viper.SetDefault("embedding.max_chars", 4000)
	viper.SetDefault("embedding.openai_model", "text-embedding-3-small")

	// 摘要生成配置默认值
	viper.SetDefault("summary.model", "deepseek-ai/DeepSeek-R1-Distill-Qwen-32B")
	viper.SetDefault("summary.max_new_tokens", 150)
	viper.SetDefault("summary.temperature", 0.3)
	viper.SetDefault("summary.repetition_penalty", 1.2)
	viper.SetDefault("summary.prompt_chars", 200)
	viper.SetDefault("summary.max_retries", 3)

	// 向量存储配置默认值
	viper.SetDefault("vector_store.provider", "memory")
	viper.SetDefault("vector_store.milvus.address", "localhost:19530")
	viper.SetDefault("vector_store.milvus.collection", "documents")
	viper.SetDefault("vector_store.milvus.database", "default")
	viper.SetDefault("vector_store.milvus.tls", false)

	// 文件上传配置默认值
	viper.SetDefault("file_upload.max_size", 15728640) // 15MB
	viper.SetDefault("file_upload.allowed_types", []string{".txt", ".pdf", ".docx"})
	viper.SetDefault("file_upload.preview_chars", 2000)

	// 读取环境变量
	viper.SetEnvPrefix("DOCSTORE")
	viper.AutomaticEnv()

	// 凭证只从环境变量注入，绝不写在源码里
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if env := os.Getenv("ENV"); env != "" {
		viper.Set("server.env", env)
	}
	if token := os.Getenv("HF_API_TOKEN"); token != "" {
		viper.Set("inference.api_token", token)
	}
	if baseURL := os.Getenv("HF_API_URL"); baseURL != "" {
		viper.Set("inference.base_url", baseURL)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		viper.Set("embedding.openai_api_key", key)
	}
	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		viper.Set("embedding.provider", provider)
	}
	if model := os.Getenv("OPENAI_EMBEDDING_MODEL"); model != "" {
		viper.Set("embedding.openai_model", model)
	}
	if provider := os.Getenv("VECTOR_STORE_PROVIDER"); provider != "" {
		viper.Set("vector_store.provider", provider)
	}
	if address := os.Getenv("MILVUS_ADDRESS"); address != "" {
		viper.Set("vector_store.milvus.address", address)
		viper.Set("vector_store.provider", "milvus")
	}
	if username := os.Getenv("MILVUS_USERNAME"); username != "" {
		viper.Set("vector_store.milvus.username", username)
	}
	if password := os.Getenv("MILVUS_PASSWORD"); password != "" {
		viper.Set("vector_store.milvus.password", password)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}

	// 配置校验
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	AppConfig = &cfg
	return nil
}

// GetAppConfig 获取全局配置实例
func GetAppConfig() *Config {
	return AppConfig
}
