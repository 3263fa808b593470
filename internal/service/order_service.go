package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/datamodels/order"
	"github.com/alfredoT7/io2-back/internal/datamodels/product"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
	"github.com/alfredoT7/io2-back/internal/notify"
)

const (
	// totalTolerance 金额对账容差
	totalTolerance = 0.01
	// orderNumberAttempts 订单号撞号时的重试上限
	orderNumberAttempts = 3
	// orderNumberPrefix 订单号前缀，完整格式 ORD-YYYYMMDD-NNN
	orderNumberPrefix = "ORD-"
)

// OrderService 订单工作流：校验、对账、编号、落库、确认消息
type OrderService struct {
	orders   order.Repository
	users    user.Repository
	products product.Repository
	sender   notify.Sender
	now      func() time.Time
}

// NewOrderService 创建订单服务。sender 可以为 nil（此时跳过确认消息）。
func NewOrderService(orders order.Repository, users user.Repository, products product.Repository, sender notify.Sender) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		products: products,
		sender:   sender,
		now:      time.Now,
	}
}

// CreateItemInput 下单行。UnitPrice/Subtotal 是客户端声称的金额，
// 可以不传（为 0），传了就会与服务端核算值对账。
type CreateItemInput struct {
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price,omitempty"`
	Subtotal  float64 `json:"subtotal,omitempty"`
}

// SummaryInput 客户端提交的金额汇总，可选；提交则逐项对账
type SummaryInput struct {
	Subtotal  float64 `json:"subtotal"`
	Taxes     float64 `json:"taxes"`
	Discounts float64 `json:"discounts"`
	Total     float64 `json:"total"`
}

// PaymentInput 支付描述
type PaymentInput struct {
	Method        string    `json:"method"`
	LastDigits    string    `json:"last_digits,omitempty"`
	TransactionAt time.Time `json:"transaction_at"`
}

// CreateOrderInput 下单请求
type CreateOrderInput struct {
	Items    []CreateItemInput `json:"items"`
	Summary  *SummaryInput     `json:"summary,omitempty"`
	Shipping order.Shipping    `json:"shipping"`
	Payment  PaymentInput      `json:"payment"`
	Notes    string            `json:"notes,omitempty"`
	// OrderNumber 仅供可信系统显式指定，普通下单留空由序列器分配
	OrderNumber string `json:"order_number,omitempty"`
}

// Create 创建订单。校验严格先于落库，落库先于确认消息；
// 确认消息失败只记日志，不影响订单结果。
func (s *OrderService) Create(ctx context.Context, buyerID int64, in *CreateOrderInput) (*order.Order, error) {
	GetMonitor().RecordOrderRequest()

	buyer, err := s.activeUser(ctx, buyerID)
	if err != nil {
		GetMonitor().RecordOrderError()
		return nil, err
	}

	if verr := validateCreateOrder(in); verr != nil {
		GetMonitor().RecordOrderError()
		return nil, verr
	}

	items, computedSubtotal, err := s.buildItems(ctx, in.Items)
	if err != nil {
		GetMonitor().RecordOrderError()
		if isReconciliation(err) {
			GetMonitor().RecordReconciliationError()
		}
		return nil, err
	}

	taxes, discounts, total, err := reconcileSummary(computedSubtotal, in.Summary)
	if err != nil {
		GetMonitor().RecordOrderError()
		GetMonitor().RecordReconciliationError()
		return nil, err
	}

	o := &order.Order{
		UserID:    buyerID,
		Items:     items,
		Subtotal:  round2(computedSubtotal),
		Taxes:     taxes,
		Discounts: discounts,
		Total:     round2(total),
		Shipping:  in.Shipping,
		Payment: order.Payment{
			Method:        in.Payment.Method,
			LastDigits:    in.Payment.LastDigits,
			TransactionAt: in.Payment.TransactionAt,
		},
		Notes:     in.Notes,
		Status:    order.StatusPending,
		OrderedAt: s.now(),
	}

	if err := s.persistWithNumber(ctx, o, in.OrderNumber); err != nil {
		GetMonitor().RecordOrderError()
		return nil, err
	}
	GetMonitor().RecordOrderCreated()

	// 确认消息是尽力而为的旁路，任何错误都不能让已落库的订单失败
	if s.sender != nil {
		if err := s.sender.Send(ctx, o, buyer); err != nil {
			GetMonitor().RecordNotifyError()
			zap.L().Warn("order notification failed",
				zap.String("order_number", o.OrderNumber),
				zap.Error(err))
		} else {
			GetMonitor().RecordNotifyPublished()
		}
	}

	return o, nil
}

// activeUser 解析激活用户，缺失或停用都按 not found 处理
func (s *OrderService) activeUser(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("user", id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	if !u.Active {
		return nil, NewNotFound("user", id)
	}
	return u, nil
}

func validateCreateOrder(in *CreateOrderInput) *ValidationError {
	var errs []string

	if len(in.Items) == 0 {
		errs = append(errs, "order must contain at least one item")
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			errs = append(errs, fmt.Sprintf("items[%d]: product id is required", i))
		}
		if it.Quantity < 1 {
			errs = append(errs, fmt.Sprintf("items[%d]: quantity must be at least 1", i))
		}
	}

	sh := in.Shipping
	if strings.TrimSpace(sh.Address) == "" {
		errs = append(errs, "shipping address is required")
	}
	if strings.TrimSpace(sh.City) == "" {
		errs = append(errs, "shipping city is required")
	}
	if strings.TrimSpace(sh.PostalCode) == "" {
		errs = append(errs, "shipping postal code is required")
	}
	if strings.TrimSpace(sh.Country) == "" {
		errs = append(errs, "shipping country is required")
	}
	if strings.TrimSpace(sh.Phone) == "" {
		errs = append(errs, "shipping phone is required")
	} else if !order.ValidShippingPhone(sh.Phone) {
		errs = append(errs, "shipping phone is not a valid phone number")
	}

	if !order.ValidPaymentMethod(in.Payment.Method) {
		errs = append(errs, "payment method is not valid")
	} else if order.IsCardMethod(in.Payment.Method) {
		if len(in.Payment.LastDigits) != 4 || !allDigits(in.Payment.LastDigits) {
			errs = append(errs, "card payments require the last 4 digits")
		}
	}
	if in.Payment.TransactionAt.IsZero() {
		errs = append(errs, "payment transaction date is required")
	}

	if in.Summary != nil {
		if in.Summary.Taxes < 0 {
			errs = append(errs, "taxes must not be negative")
		}
		if in.Summary.Discounts < 0 {
			errs = append(errs, "discounts must not be negative")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// buildItems 逐行解析商品引用并生成快照行；任何一行解析失败，整单拒绝
func (s *OrderService) buildItems(ctx context.Context, inputs []CreateItemInput) ([]order.Item, float64, error) {
	items := make([]order.Item, 0, len(inputs))
	var sum float64

	for _, in := range inputs {
		p, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, NewNotFound("product", in.ProductID)
			}
			GetMonitor().RecordDBError()
			return nil, 0, err
		}
		if !p.Active {
			return nil, 0, NewNotFound("product", in.ProductID)
		}

		if in.UnitPrice != 0 && math.Abs(in.UnitPrice-p.Price) > totalTolerance {
			return nil, 0, &ReconciliationError{
				Reason: fmt.Sprintf("unit price for product %d does not match the catalog", in.ProductID),
			}
		}

		lineSubtotal := p.Price * float64(in.Quantity)
		if in.Subtotal != 0 && math.Abs(in.Subtotal-lineSubtotal) > totalTolerance {
			return nil, 0, &ReconciliationError{
				Reason: fmt.Sprintf("subtotal for product %s does not match unit price × quantity", p.Title),
			}
		}

		items = append(items, order.Item{
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.Price,
			Quantity:  in.Quantity,
			Subtotal:  round2(lineSubtotal),
		})
		sum += lineSubtotal
	}
	return items, sum, nil
}

// reconcileSummary 核对客户端金额汇总。没有汇总时税费/折扣按 0，
// 合计即行小计之和。
func reconcileSummary(computedSubtotal float64, summary *SummaryInput) (taxes, discounts, total float64, err error) {
	if summary == nil {
		return 0, 0, computedSubtotal, nil
	}
	if math.Abs(computedSubtotal-summary.Subtotal) > totalTolerance {
		return 0, 0, 0, &ReconciliationError{Reason: "subtotal does not match the line items"}
	}
	computedTotal := summary.Subtotal + summary.Taxes - summary.Discounts
	if math.Abs(computedTotal-summary.Total) > totalTolerance {
		return 0, 0, 0, &ReconciliationError{Reason: "total does not match subtotal + taxes - discounts"}
	}
	return summary.Taxes, summary.Discounts, summary.Total, nil
}

// persistWithNumber 分配订单号并落库。并发下单撞号时（同一天同后缀）
// 靠唯一索引兜底，换号重试，最多 orderNumberAttempts 次；
// 可信系统显式传号则不重试。
func (s *OrderService) persistWithNumber(ctx context.Context, o *order.Order, explicit string) error {
	if explicit != "" {
		o.OrderNumber = explicit
		if err := s.orders.Create(ctx, o); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateOrderNumber
			}
			GetMonitor().RecordDBError()
			return err
		}
		return nil
	}

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		num, err := s.nextOrderNumber(ctx)
		if err != nil {
			GetMonitor().RecordDBError()
			return err
		}
		o.OrderNumber = num
		err = s.orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			zap.L().Warn("order number collision, retrying",
				zap.String("order_number", num),
				zap.Int("attempt", attempt+1))
			continue
		}
		GetMonitor().RecordDBError()
		return err
	}
	return ErrDuplicateOrderNumber
}

// nextOrderNumber 生成 ORD-YYYYMMDD-NNN：取当天前缀下最大后缀加一，
// 当天没有订单时从 001 开始
func (s *OrderService) nextOrderNumber(ctx context.Context) (string, error) {
	prefix := orderNumberPrefix + s.now().Format("20060102")
	last, err := s.orders.MaxOrderNumber(ctx, prefix)
	if err != nil {
		return "", err
	}
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, seq), nil
}

// Page 分页查询结果
type Page struct {
	Orders      []*order.Order `json:"orders"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalOrders int64          `json:"total_orders"`
	TotalPages  int            `json:"total_pages"`
}

// ListByUser 按用户分页查询订单，下单时间倒序
func (s *OrderService) ListByUser(ctx context.Context, userID int64, f order.Filter, page, pageSize int) (*Page, error) {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	list, total, err := s.orders.ListByUser(ctx, userID, f, page, pageSize)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return &Page{
		Orders:      list,
		Page:        page,
		PageSize:    pageSize,
		TotalOrders: total,
		TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// GetByID 查询单个订单
func (s *OrderService) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("order", id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	return o, nil
}

// UpdateStatus 更新订单状态。只校验状态值本身，
// 不限制状态间的迁移方向（与历史行为兼容）。
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*order.Order, error) {
	if !order.ValidStatus(status) {
		return nil, &ValidationError{Errors: []string{
			fmt.Sprintf("status must be one of: %s", strings.Join(order.Statuses, ", ")),
		}}
	}
	o, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("order", id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	return o, nil
}

// Statistics 用户订单统计：总数、总额、均值、按状态分布、最常用支付方式
func (s *OrderService) Statistics(ctx context.Context, userID int64) (*order.Stats, error) {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	stats, err := s.orders.StatsByUser(ctx, userID)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return stats, nil
}

// ListRecent 后台用：最新订单列表
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	return s.orders.ListRecent(ctx, limit)
}

func isReconciliation(err error) bool {
	var re *ReconciliationError
	return errors.As(err, &re)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
