package router

import (
	"github.com/aihub/docstore-go/app/controllers"
	"github.com/aihub/docstore-go/app/middleware"
	"github.com/beego/beego/v2/server/web"
)

// Init 注册所有路由。控制器依赖在每次请求的Prepare中解析。
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")

	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSMiddleware)

	// 文档路由
	documentController := &controllers.DocumentController{}
	web.Router("/api/documents", documentController, "get:List;post:Create")
	// 注意：具体路由必须在参数路由之前，否则/upload会被:id匹配
	web.Router("/api/documents/upload", documentController, "post:Upload")
	web.Router("/api/documents/stats", documentController, "get:Stats")
	web.Router("/api/documents/:id", documentController, "get:Get;put:Update;delete:Delete")

	// 搜索路由
	searchController := &controllers.SearchController{}
	web.Router("/api/search", searchController, "get:Lookup")
	web.Router("/api/search/topics", searchController, "get:Topics")
}
