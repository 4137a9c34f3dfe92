package integration

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/aihub/docstore-go/app/bootstrap"
	"github.com/aihub/docstore-go/app/router"
	"github.com/beego/beego/v2/server/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newInferenceStub 同时模拟文本生成和特征提取两个端点
func newInferenceStub() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pipeline/feature-extraction/"):
			embedding := make([]float32, 384)
			for i := range embedding {
				embedding[i] = 0.05
			}
			json.NewEncoder(w).Encode([][]float32{embedding})
		case strings.HasPrefix(r.URL.Path, "/models/"):
			w.Write([]byte(`[{"generated_text":"An integration test document."}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

var (
	setupOnce sync.Once
	setupErr  error
)

// setupApp 整个测试包只初始化一次应用，避免路由重复注册
func setupApp(t *testing.T) {
	t.Helper()

	setupOnce.Do(func() {
		stub := newInferenceStub()

		os.Setenv("HF_API_TOKEN", "integration-token")
		os.Setenv("HF_API_URL", stub.URL)
		os.Setenv("VECTOR_STORE_PROVIDER", "memory")

		if _, setupErr = bootstrap.Init(); setupErr != nil {
			return
		}
		router.Init()
		web.BConfig.CopyRequestBody = true
	})
	require.NoError(t, setupErr)
}

// newMultipartFile 构造multipart请求体，返回Content-Type
func newMultipartFile(t *testing.T, buf *bytes.Buffer, field, filename, content string) string {
	t.Helper()

	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return writer.FormDataContentType()
}

func doRequest(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	web.BeeApp.Handlers.ServeHTTP(w, req)
	return w
}

// TestDocumentPipeline 端到端验证：创建、读取、搜索、更新、删除
func TestDocumentPipeline(t *testing.T) {
	setupApp(t)

	// 创建文档
	createBody, _ := json.Marshal(map[string]string{
		"text": "Integration Test Title\nThis is the body of the document.",
	})
	w := doRequest(t, "POST", "/api/documents", createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var createResp struct {
		Success bool `json:"success"`
		Data    struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	assert.True(t, createResp.Success)
	require.NotEmpty(t, createResp.Data.ID)
	assert.Equal(t, "Integration Test Title", createResp.Data.Title)

	docID := createResp.Data.ID

	// 读取文档
	w = doRequest(t, "GET", "/api/documents/"+docID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 列表
	w = doRequest(t, "GET", "/api/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 搜索：存根向量全部相同，查询必然命中
	w = doRequest(t, "GET", "/api/search?q=integration", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var searchResp struct {
		Data struct {
			Results []struct {
				ID         string  `json:"id"`
				Similarity float64 `json:"similarity"`
			} `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &searchResp))
	require.NotEmpty(t, searchResp.Data.Results)
	assert.Equal(t, docID, searchResp.Data.Results[0].ID)
	assert.InDelta(t, 1.0, searchResp.Data.Results[0].Similarity, 1e-6)

	// 主题搜索
	w = doRequest(t, "GET", "/api/search/topics?q=integration", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 更新标题
	updateBody, _ := json.Marshal(map[string]string{"title": "Renamed Title"})
	w = doRequest(t, "PUT", "/api/documents/"+docID, updateBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updateResp struct {
		Data struct {
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updateResp))
	assert.Equal(t, "Renamed Title", updateResp.Data.Title)

	// 统计
	w = doRequest(t, "GET", "/api/documents/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 删除
	w = doRequest(t, "DELETE", "/api/documents/"+docID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 删除后读取返回404
	w = doRequest(t, "GET", "/api/documents/"+docID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestUploadTextFile 上传txt文件走完整处理链路
func TestUploadTextFile(t *testing.T) {
	setupApp(t)

	var buf bytes.Buffer
	writer := newMultipartFile(t, &buf, "file", "report.txt", "Report Title\nreport body content")

	req := httptest.NewRequest("POST", "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", writer)

	w := httptest.NewRecorder()
	web.BeeApp.Handlers.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Report Title", resp.Data.Title)
}

// TestHealthEndpoint 健康检查
func TestHealthEndpoint(t *testing.T) {
	setupApp(t)

	w := doRequest(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Status     string          `json:"status"`
			Components map[string]bool `json:"components"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.True(t, resp.Data.Components["vector_store"])
	assert.True(t, resp.Data.Components["embedder"])
}

// TestEmptyDocumentRejected 空文本创建应被拒绝
func TestEmptyDocumentRejected(t *testing.T) {
	setupApp(t)

	body, _ := json.Marshal(map[string]string{"text": "   "})
	w := doRequest(t, "POST", "/api/documents", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
