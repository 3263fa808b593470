package main

import (
	"context"
	"encoding/json"
	"log"

	"go.uber.org/zap"

	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/infra/mq"
	"github.com/alfredoT7/io2-back/internal/logging"
	"github.com/alfredoT7/io2-back/internal/notify"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Init(cfg.Env)

	mqConn := mq.Init(&cfg.RabbitMQ)

	ch, err := mqConn.Channel()
	if err != nil {
		zap.L().Fatal("failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(cfg.Notify.Queue, true, false, false, false, nil); err != nil {
		zap.L().Fatal("failed to declare queue", zap.Error(err))
	}

	// 手动确认模式（auto-ack=false）
	msgs, err := ch.Consume(cfg.Notify.Queue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("failed to consume", zap.Error(err))
	}

	// 投递通道。默认只打日志，生产部署换成真实的 WhatsApp 桥实现。
	var messenger notify.Messenger = notify.LogMessenger{}

	zap.L().Info("notify worker started, waiting for messages",
		zap.String("queue", cfg.Notify.Queue))

	ctx := context.Background()
	for d := range msgs {
		var m notify.Message
		if err := json.Unmarshal(d.Body, &m); err != nil {
			zap.L().Warn("invalid message, discarding", zap.Error(err))
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}

		// 确认消息是尽力而为：投递失败丢弃，不重回队列造成重试风暴
		if err := messenger.Deliver(ctx, m.Phone, m.Body); err != nil {
			zap.L().Warn("delivery failed, discarding",
				zap.String("order_number", m.OrderNumber),
				zap.String("message_id", m.MessageID),
				zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}

		zap.L().Info("confirmation delivered",
			zap.String("order_number", m.OrderNumber),
			zap.String("phone", m.Phone))
		_ = d.Ack(false)
	}
}
