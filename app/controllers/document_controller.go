package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aihub/docstore-go/internal/config"
	"github.com/aihub/docstore-go/internal/di"
	"github.com/aihub/docstore-go/internal/logger"
	"github.com/aihub/docstore-go/internal/services"
	"go.uber.org/zap"
)

// DocumentController 文档控制器
type DocumentController struct {
	BaseController
	docService *services.DocumentService
}

// NewDocumentController 创建文档控制器
func NewDocumentController(docService *services.DocumentService) *DocumentController {
	return &DocumentController{docService: docService}
}

// Prepare 每个请求的控制器实例由框架新建，字段在这里从容器解析
func (c *DocumentController) Prepare() {
	if c.docService != nil {
		return
	}
	if err := di.Invoke(func(svc *services.DocumentService) {
		c.docService = svc
	}); err != nil {
		logger.Error("failed to resolve document service", zap.Error(err))
		c.JSONError(http.StatusServiceUnavailable, "服务未初始化")
		c.StopRun()
	}
}

// CreateDocumentRequest 创建文档请求
type CreateDocumentRequest struct {
	Text string `json:"text"`
}

// List 获取文档列表
func (c *DocumentController) List() {
	documents, err := c.docService.List(c.Ctx.Request.Context())
	if err != nil {
		c.JSONServiceError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// Create 从纯文本创建文档
func (c *DocumentController) Create() {
	var req CreateDocumentRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "请求参数错误")
		return
	}

	doc, err := c.docService.Create(c.Ctx.Request.Context(), req.Text)
	if err != nil {
		c.JSONServiceError(err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    doc,
	})
}

// Upload 上传文件创建文档
func (c *DocumentController) Upload() {
	file, header, err := c.GetFile("file")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "缺少上传文件")
		return
	}
	defer file.Close()

	cfg := config.GetAppConfig()
	if cfg != nil && cfg.FileUpload.MaxSize > 0 && header.Size > cfg.FileUpload.MaxSize {
		c.JSONError(http.StatusRequestEntityTooLarge, "文件超过大小限制")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !c.supportedExt(ext) {
		c.JSONError(http.StatusBadRequest, "不支持的文件格式: "+ext)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "读取上传文件失败")
		return
	}

	doc, err := c.docService.CreateFromFile(c.Ctx.Request.Context(), header.Filename, content)
	if err != nil {
		c.JSONServiceError(err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    doc,
	})
}

// Get 获取文档详情
func (c *DocumentController) Get() {
	id := c.GetString(":id")
	if id == "" {
		c.JSONError(http.StatusBadRequest, "缺少文档ID")
		return
	}

	doc, err := c.docService.Get(c.Ctx.Request.Context(), id)
	if err != nil {
		c.JSONServiceError(err)
		return
	}
	c.JSONSuccess(doc)
}

// Update 更新文档
func (c *DocumentController) Update() {
	id := c.GetString(":id")
	if id == "" {
		c.JSONError(http.StatusBadRequest, "缺少文档ID")
		return
	}

	var req services.UpdateDocumentRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "请求参数错误")
		return
	}

	doc, err := c.docService.Update(c.Ctx.Request.Context(), id, req)
	if err != nil {
		c.JSONServiceError(err)
		return
	}
	c.JSONSuccess(doc)
}

// Delete 删除文档
func (c *DocumentController) Delete() {
	id := c.GetString(":id")
	if id == "" {
		c.JSONError(http.StatusBadRequest, "缺少文档ID")
		return
	}

	if err := c.docService.Delete(c.Ctx.Request.Context(), id); err != nil {
		c.JSONServiceError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"message": "文档已删除",
	})
}

// Stats 集合统计信息
func (c *DocumentController) Stats() {
	stats, err := c.docService.Stats(c.Ctx.Request.Context())
	if err != nil {
		c.JSONServiceError(err)
		return
	}
	c.JSONSuccess(stats)
}

// supportedExt 优先按配置的白名单过滤，未配置时接受所有解析器支持的格式
func (c *DocumentController) supportedExt(ext string) bool {
	allowedTypes := c.docService.SupportedFormats()
	if cfg := config.GetAppConfig(); cfg != nil && len(cfg.FileUpload.AllowedTypes) > 0 {
		allowedTypes = cfg.FileUpload.AllowedTypes
	}
	for _, allowed := range allowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
