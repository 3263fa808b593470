package notify

import (
	"context"

	"go.uber.org/zap"
)

// Messenger 把格式化好的文本投递到外部消息通道（WhatsApp 桥等）。
// notify-worker 消费队列后通过它完成最终投递。
type Messenger interface {
	Deliver(ctx context.Context, phone, body string) error
}

// LogMessenger 默认实现：只打日志，不接真实通道。
// 生产部署时换成实际的 WhatsApp 桥实现即可。
type LogMessenger struct{}

// Deliver 记录一条"已投递"日志
func (LogMessenger) Deliver(ctx context.Context, phone, body string) error {
	zap.L().Info("delivering order confirmation",
		zap.String("phone", phone),
		zap.Int("body_len", len(body)))
	return nil
}
