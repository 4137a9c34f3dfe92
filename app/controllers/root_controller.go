package controllers

import (
	"net/http"

	"github.com/aihub/docstore-go/internal/di"
	"github.com/aihub/docstore-go/internal/logger"
	"github.com/aihub/docstore-go/internal/services"
	"go.uber.org/zap"
)

// RootController 服务入口信息
type RootController struct {
	BaseController
}

// Index 返回服务基本信息与可用端点
func (c *RootController) Index() {
	c.JSONSuccess(map[string]interface{}{
		"service": "docstore",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"documents": "/api/documents",
			"upload":    "/api/documents/upload",
			"stats":     "/api/documents/stats",
			"search":    "/api/search",
			"topics":    "/api/search/topics",
			"health":    "/health",
		},
	})
}

// HealthController 健康检查
type HealthController struct {
	BaseController
	docService *services.DocumentService
}

// NewHealthController 创建健康检查控制器
func NewHealthController(docService *services.DocumentService) *HealthController {
	return &HealthController{docService: docService}
}

// Prepare 每个请求的控制器实例由框架新建，字段在这里从容器解析
func (c *HealthController) Prepare() {
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

// Health 返回各依赖的就绪状态，任一依赖未就绪时整体为degraded
func (c *HealthController) Health() {
	components := c.docService.Ready()
	status := "healthy"
	for _, ready := range components {
		if !ready {
			status = "degraded"
			break
		}
	}
	c.JSONSuccess(map[string]interface{}{
		"status":     status,
		"components": components,
	})
}
