package service

import (
	"sync"
	"time"
)

// Monitor 监控服务，用于统计订单链路的错误和性能指标
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors             int64
	OrderErrors          int64
	ReconciliationErrors int64
	NotifyErrors         int64

	// 业务统计
	OrderRequests   int64
	OrdersCreated   int64
	NotifyPublished int64

	// 时间统计
	LastDBError     time.Time
	LastOrderError  time.Time
	LastNotifyError time.Time
	LastOrderTime   time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordOrderRequest 记录下单请求
func (m *Monitor) RecordOrderRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRequests++
	m.LastOrderTime = time.Now()
}

// RecordOrderCreated 记录下单成功
func (m *Monitor) RecordOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
}

// RecordOrderError 记录下单失败
func (m *Monitor) RecordOrderError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderErrors++
	m.LastOrderError = time.Now()
}

// RecordReconciliationError 记录对账失败
func (m *Monitor) RecordReconciliationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReconciliationErrors++
}

// RecordNotifyPublished 记录确认消息投递成功
func (m *Monitor) RecordNotifyPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyPublished++
}

// RecordNotifyError 记录确认消息投递失败（不影响订单本身）
func (m *Monitor) RecordNotifyError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyErrors++
	m.LastNotifyError = time.Now()
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.OrderRequests > 0 {
		successRate = float64(m.OrdersCreated) / float64(m.OrderRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":             m.DBErrors,
			"order":          m.OrderErrors,
			"reconciliation": m.ReconciliationErrors,
			"notify":         m.NotifyErrors,
		},
		"orders": map[string]interface{}{
			"requests":     m.OrderRequests,
			"created":      m.OrdersCreated,
			"success_rate": successRate,
		},
		"notify": map[string]interface{}{
			"published": m.NotifyPublished,
			"failed":    m.NotifyErrors,
		},
		"last_events": map[string]interface{}{
			"db_error":     m.LastDBError,
			"order_error":  m.LastOrderError,
			"notify_error": m.LastNotifyError,
			"last_order":   m.LastOrderTime,
		},
	}
}

// Reset 重置统计（用于测试）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.OrderErrors = 0
	m.ReconciliationErrors = 0
	m.NotifyErrors = 0
	m.OrderRequests = 0
	m.OrdersCreated = 0
	m.NotifyPublished = 0
}
