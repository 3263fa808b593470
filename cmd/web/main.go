package main

import (
	"context"
	"log"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/logging"
	"github.com/alfredoT7/io2-back/internal/notify"
	"github.com/alfredoT7/io2-back/internal/server"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Init(cfg.Env)

	// 确认消息通道：启动时尝试建连，失败不阻塞服务启动，
	// 发送时会在宽限时间内重试建连
	sender := notify.NewAMQPSender(&cfg.RabbitMQ, &cfg.Notify)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Notify.GraceWait())
	if err := sender.Connect(ctx); err != nil {
		zap.L().Warn("notification channel not available at startup", zap.Error(err))
	}
	cancel()
	defer sender.Close()

	app := iris.New()
	server.RegisterRoutes(app, cfg, sender)

	addr := cfg.Server.Addr()
	zap.L().Info("web server listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := app.Run(
		iris.Addr(addr),
		iris.WithOptimizations,
		iris.WithoutServerError(iris.ErrServerClosed),
		iris.WithConfiguration(iris.Configuration{
			TimeFormat: time.RFC3339,
		}),
	); err != nil {
		zap.L().Fatal("failed to run web server", zap.Error(err))
	}
}
