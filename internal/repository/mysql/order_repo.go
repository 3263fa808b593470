package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64, f order.Filter, page, pageSize int) ([]*order.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	query := r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.From != nil {
		query = query.Where("ordered_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("ordered_at <= ?", *f.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []*order.Order
	if err := query.
		Preload("Items").
		Order("ordered_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status string) (*order.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// 确认订单是否存在：状态没变也会返回 0 行
		var count int64
		if err := r.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(ctx, id)
}

func (r *orderRepo) MaxOrderNumber(ctx context.Context, prefix string) (string, error) {
	var num string
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Scan(&num).Error
	if err != nil {
		return "", err
	}
	return num, nil
}

func (r *orderRepo) StatsByUser(ctx context.Context, userID int64) (*order.Stats, error) {
	stats := &order.Stats{ByStatus: make(map[string]int64)}

	var row struct {
		TotalOrders  int64
		TotalSpent   float64
		AverageOrder float64
	}
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(total), 0) AS total_spent, COALESCE(AVG(total), 0) AS average_order").
		Where("user_id = ?", userID).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	stats.TotalOrders = row.TotalOrders
	stats.TotalSpent = row.TotalSpent
	stats.AverageOrder = row.AverageOrder

	var byStatus []struct {
		Status string
		Cnt    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("status, COUNT(*) AS cnt").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, s := range byStatus {
		stats.ByStatus[s.Status] = s.Cnt
	}

	if stats.TotalOrders > 0 {
		var top string
		if err := r.db.WithContext(ctx).
			Model(&order.Order{}).
			Select("payment_method").
			Where("user_id = ?", userID).
			Group("payment_method").
			Order("COUNT(*) DESC").
			Limit(1).
			Scan(&top).Error; err != nil {
			return nil, err
		}
		stats.TopPaymentMethod = top
	}
	return stats, nil
}
