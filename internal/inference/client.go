package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/aihub/docstore-go/internal/logger"
	"go.uber.org/zap"
)

// Client 统一的推理API客户端，支持文本生成与特征提取
type Client struct {
	apiToken string
	baseURL  string
	client   *http.Client
	limiter  sync.Mutex
}

// GenerationParameters 文本生成参数
type GenerationParameters struct {
	MaxNewTokens      int     `json:"max_new_tokens,omitempty"`
	Temperature       float64 `json:"temperature,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty,omitempty"`
}

// GenerationRequest 文本生成请求
type GenerationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters GenerationParameters `json:"parameters"`
}

// generationResponse 文本生成响应
type generationResponse struct {
	GeneratedText string `json:"generated_text"`
}

// featureExtractionRequest 特征提取请求
type featureExtractionRequest struct {
	Inputs []string `json:"inputs"`
}

// apiError 推理API错误响应
type apiError struct {
	Error string `json:"error"`
}

// NewClient 创建推理API客户端
func NewClient(apiToken, baseURL string, timeout time.Duration) *Client {
	apiToken = strings.TrimSpace(apiToken)
	if apiToken == "" {
		logger.Warn("inference API token is empty")
	}
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		apiToken: apiToken,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// TextGeneration 调用文本生成接口，返回原始生成文本
func (c *Client) TextGeneration(ctx context.Context, model string, req GenerationRequest) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("inference client not initialized")
	}

	c.limiter.Lock()
	defer c.limiter.Unlock()

	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, url.PathEscape(model))
	body, err := c.post(ctx, endpoint, req)
	if err != nil {
		return "", err
	}

	// 响应为一个生成结果数组，取第一个
	var results []generationResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return "", apperrors.NewInvalidResponseError("无法解析文本生成响应").WithCause(err)
	}
	if len(results) == 0 {
		return "", apperrors.NewInvalidResponseError("文本生成响应为空")
	}

	logger.Info("inference TextGeneration success",
		zap.String("model", model),
		zap.Int("output_chars", len(results[0].GeneratedText)))

	return results[0].GeneratedText, nil
}

// FeatureExtraction 调用特征提取接口，每个输入文本对应一个向量
func (c *Client) FeatureExtraction(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("inference client not initialized")
	}

	c.limiter.Lock()
	defer c.limiter.Unlock()

	endpoint := fmt.Sprintf("%s/pipeline/feature-extraction/%s", c.baseURL, url.PathEscape(model))
	body, err := c.post(ctx, endpoint, featureExtractionRequest{Inputs: inputs})
	if err != nil {
		return nil, err
	}

	var embeddings [][]float32
	if err := json.Unmarshal(body, &embeddings); err != nil {
		return nil, apperrors.NewInvalidResponseError("无法解析特征提取响应").WithCause(err)
	}
	if len(embeddings) == 0 {
		return nil, apperrors.NewInvalidResponseError("特征提取响应为空")
	}

	logger.Info("inference FeatureExtraction success",
		zap.String("model", model),
		zap.Int("input_count", len(inputs)))

	return embeddings, nil
}

// post 发送JSON请求并返回响应体，非200状态码转换为ServiceError
func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API调用失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, apperrors.NewServiceError(errResp.Error)
		}
		return nil, apperrors.NewServiceError(fmt.Sprintf("HTTP %d - %s", resp.StatusCode, string(body)))
	}

	return body, nil
}

// Ready 检查客户端是否就绪
func (c *Client) Ready() bool {
	return c != nil && c.client != nil && c.apiToken != ""
}

// IsTimeout 判断错误是否属于超时类失败
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
