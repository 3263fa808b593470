package order

import (
	"context"
	"regexp"
	"time"
)

// 订单状态。状态间不做迁移限制（任意状态可以改为任意状态），
// 与历史行为保持兼容。
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Statuses 全部合法状态
var Statuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ValidStatus 状态是否合法
func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// 支付方式
const (
	PayCreditCard   = "credit_card"
	PayDebitCard    = "debit_card"
	PayBankTransfer = "bank_transfer"
	PayCash         = "cash"
	PayPaypal       = "paypal"
)

// ValidPaymentMethod 支付方式是否合法
func ValidPaymentMethod(m string) bool {
	switch m {
	case PayCreditCard, PayDebitCard, PayBankTransfer, PayCash, PayPaypal:
		return true
	}
	return false
}

// IsCardMethod 是否卡类支付（需要末四位）
func IsCardMethod(m string) bool {
	return m == PayCreditCard || m == PayDebitCard
}

// Item 订单行。名称与单价是下单瞬间的目录快照，
// 后续商品改价/改名不影响历史订单。
type Item struct {
	ID        int64   `gorm:"primaryKey" json:"-"`
	OrderID   int64   `gorm:"index;not null" json:"-"`
	ProductID int64   `gorm:"index;not null" json:"product_id"`
	Title     string  `gorm:"size:200;not null" json:"title"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Quantity  int64   `gorm:"not null" json:"quantity"`
	Subtotal  float64 `gorm:"not null" json:"subtotal"` // = UnitPrice * Quantity
}

// Shipping 收货信息快照
type Shipping struct {
	Address    string `gorm:"size:200;not null" json:"address"`
	City       string `gorm:"size:64;not null" json:"city"`
	PostalCode string `gorm:"size:16;not null" json:"postal_code"`
	Country    string `gorm:"size:64;not null" json:"country"`
	Phone      string `gorm:"size:20;not null" json:"phone"`
}

// Payment 支付描述（只记录，不做扣款）
type Payment struct {
	Method        string    `gorm:"size:20;not null" json:"method"`
	LastDigits    string    `gorm:"size:4" json:"last_digits,omitempty"` // 仅卡类支付
	TransactionAt time.Time `json:"transaction_at"`
}

// Order 订单模型。创建后除 Status 外不可变。
type Order struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"user_id"`
	OrderNumber string    `gorm:"uniqueIndex;size:20;not null" json:"order_number"`
	Items       []Item    `gorm:"foreignKey:OrderID" json:"items"`
	Subtotal    float64   `gorm:"not null" json:"subtotal"`
	Taxes       float64   `gorm:"not null" json:"taxes"`
	Discounts   float64   `gorm:"not null" json:"discounts"`
	Total       float64   `gorm:"not null" json:"total"`
	Shipping    Shipping  `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	Payment     Payment   `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	Notes       string    `gorm:"size:512" json:"notes,omitempty"`
	Status      string    `gorm:"size:16;index;not null" json:"status"`
	OrderedAt   time.Time `gorm:"index" json:"ordered_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TotalQuantity 订单内商品总件数
func (o *Order) TotalQuantity() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// 收货电话：本地 8 位手机号、带 +591 的本地号、或一般国际号
var (
	shippingLocalPhone   = regexp.MustCompile(`^[6-8]\d{7}$`)
	shippingBoliviaPhone = regexp.MustCompile(`^(\+591\s?)?[6-8]\d{7}$`)
	shippingIntlPhone    = regexp.MustCompile(`^\+\d{1,4}\s?\d{6,14}$`)
)

// ValidShippingPhone 校验收货电话
func ValidShippingPhone(phone string) bool {
	return shippingLocalPhone.MatchString(phone) ||
		shippingBoliviaPhone.MatchString(phone) ||
		shippingIntlPhone.MatchString(phone)
}

// Filter 订单列表过滤条件
type Filter struct {
	Status string
	From   *time.Time // 按下单时间过滤，含边界
	To     *time.Time
}

// Stats 用户订单统计（全量聚合，不做增量计数）
type Stats struct {
	TotalOrders      int64            `json:"total_orders"`
	TotalSpent       float64          `json:"total_spent"`
	AverageOrder     float64          `json:"average_order"`
	ByStatus         map[string]int64 `json:"orders_by_status"`
	TopPaymentMethod string           `json:"top_payment_method,omitempty"`
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	// ListByUser 按下单时间倒序分页，返回该页数据与总数
	ListByUser(ctx context.Context, userID int64, f Filter, page, pageSize int) ([]*Order, int64, error)
	// ListRecent 后台用：最新订单
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	// UpdateStatus 更新状态并返回更新后的订单
	UpdateStatus(ctx context.Context, id int64, status string) (*Order, error)
	// MaxOrderNumber 返回指定前缀下字典序最大的订单号，没有时返回空串
	MaxOrderNumber(ctx context.Context, prefix string) (string, error)
	// StatsByUser 聚合某用户的订单统计
	StatsByUser(ctx context.Context, userID int64) (*Stats, error)
}
