package controllers

import (
	"net/http"

	"github.com/aihub/docstore-go/internal/di"
	"github.com/aihub/docstore-go/internal/logger"
	"github.com/aihub/docstore-go/internal/services"
	"go.uber.org/zap"
)

// SearchController 搜索控制器
type SearchController struct {
	BaseController
	searchService *services.SearchService
}

// NewSearchController 创建搜索控制器
func NewSearchController(searchService *services.SearchService) *SearchController {
	return &SearchController{searchService: searchService}
}

// Prepare 每个请求的控制器实例由框架新建，字段在这里从容器解析
func (c *SearchController) Prepare() {
	if c.searchService != nil {
		return
	}
	if err := di.Invoke(func(svc *services.SearchService) {
		c.searchService = svc
	}); err != nil {
		logger.Error("failed to resolve search service", zap.Error(err))
		c.JSONError(http.StatusServiceUnavailable, "服务未初始化")
		c.StopRun()
	}
}

// Lookup 精确查找：返回最相似的前几条文档
func (c *SearchController) Lookup() {
	query := c.GetString("q")
	if query == "" {
		c.JSONError(http.StatusBadRequest, "缺少查询参数q")
		return
	}

	results, err := c.searchService.Lookup(c.Ctx.Request.Context(), query)
	if err != nil {
		c.JSONServiceError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// Topics 主题搜索：按相似度阈值过滤候选
func (c *SearchController) Topics() {
	query := c.GetString("q")
	if query == "" {
		c.JSONError(http.StatusBadRequest, "缺少查询参数q")
		return
	}

	results, err := c.searchService.SearchTopics(c.Ctx.Request.Context(), query)
	if err != nil {
		c.JSONServiceError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}
