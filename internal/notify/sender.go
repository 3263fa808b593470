package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/datamodels/order"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
)

// Sender 订单确认消息发送接口。
// 下单流程把发送失败视为非致命：只记日志，订单照常返回。
type Sender interface {
	Connect(ctx context.Context) error
	IsReady() bool
	Send(ctx context.Context, o *order.Order, buyer *user.User) error
}

// Message 队列里的消息体，由 notify-worker 消费后投递到外部通道
type Message struct {
	MessageID   string `json:"message_id"`
	OrderNumber string `json:"order_number"`
	Phone       string `json:"phone"` // 已规范化（591 + 本地号）
	Body        string `json:"body"`
}

// ErrNotReady 消息通道在宽限时间内没有就绪
var ErrNotReady = errors.New("notification channel not ready")

// AMQPSender 基于 RabbitMQ 的发送实现。连接懒加载：
// 首次发送时若未就绪，在 grace 宽限时间内尝试建连，超时放弃本次发送。
type AMQPSender struct {
	url   string
	queue string
	grace time.Duration

	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	ready bool
}

// NewAMQPSender 构建发送器（进程启动时创建一次，注入订单服务）
func NewAMQPSender(mqCfg *config.RabbitMQConfig, nCfg *config.NotifyConfig) *AMQPSender {
	return &AMQPSender{
		url:   mqCfg.URL,
		queue: nCfg.Queue,
		grace: nCfg.GraceWait(),
	}
}

// Connect 建立连接并声明队列，可重复调用
func (s *AMQPSender) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked()
}

func (s *AMQPSender) connectLocked() error {
	if s.ready {
		return nil
	}
	// 建连时间受宽限时间约束，避免下单请求被拖住
	conn, err := amqp.DialConfig(s.url, amqp.Config{
		Dial: amqp.DefaultDial(s.grace),
	})
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if _, err = ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	s.conn = conn
	s.ch = ch
	s.ready = true

	// 连接断开后回到未就绪状态，下次发送会重新建连
	closed := make(chan *amqp.Error, 1)
	conn.NotifyClose(closed)
	go func() {
		<-closed
		s.mu.Lock()
		s.ready = false
		s.conn = nil
		s.ch = nil
		s.mu.Unlock()
	}()
	return nil
}

// IsReady 通道是否就绪
func (s *AMQPSender) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Send 发布订单确认消息。未就绪时先在宽限时间内尝试建连。
func (s *AMQPSender) Send(ctx context.Context, o *order.Order, buyer *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		if err := s.connectLocked(); err != nil {
			return err
		}
		if !s.ready {
			return ErrNotReady
		}
	}

	msg := Message{
		MessageID:   uuid.NewString(),
		OrderNumber: o.OrderNumber,
		Phone:       FormatPhone(o.Shipping.Phone),
		Body:        FormatOrderMessage(o, buyer),
	}
	body, err := json.Marshal(&msg)
	if err != nil {
		return err
	}

	return s.ch.PublishWithContext(
		ctx,
		"",
		s.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageID,
			Body:         body,
		},
	)
}

// Close 关闭连接
func (s *AMQPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	if s.ch != nil {
		_ = s.ch.Close()
		s.ch = nil
	}
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
