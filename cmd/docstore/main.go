package main

import (
	"log"
	"strconv"

	"github.com/aihub/docstore-go/app/bootstrap"
	"github.com/aihub/docstore-go/app/router"
	"github.com/aihub/docstore-go/internal/config"
	"github.com/aihub/docstore-go/internal/logger"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()
	bootstrap.SetGlobalApp(app)

	router.Init()

	// 配置Beego全局设置
	web.BConfig.AppName = "Docstore Service"
	web.BConfig.CopyRequestBody = true

	if p, err := strconv.Atoi(config.GetAppConfig().Server.Port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	}

	logger.Info("🚀 Starting Docstore Service", zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
