package main

import (
	"log"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/logging"
	"github.com/alfredoT7/io2-back/internal/server"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Init(cfg.Env)

	app := iris.New()
	server.RegisterAdminRoutes(app, cfg)

	addr := cfg.AdminServer.Addr()
	zap.L().Info("admin server listening", zap.String("addr", addr))
	if err := app.Run(
		iris.Addr(addr),
		iris.WithOptimizations,
		iris.WithoutServerError(iris.ErrServerClosed),
	); err != nil {
		zap.L().Fatal("failed to run admin server", zap.Error(err))
	}
}
