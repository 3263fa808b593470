package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, category string, page, limit int) ([]*product.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	query := r.db.WithContext(ctx).Model(&product.Product{}).Where("active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []*product.Product
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListBySeller(ctx context.Context, sellerID int64) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND active = ?", sellerID, true).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}
