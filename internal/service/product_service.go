package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/datamodels/product"
)

// ProductService 商品目录维护与查询
type ProductService struct {
	products product.Repository
}

// NewProductService 创建商品服务
func NewProductService(products product.Repository) *ProductService {
	return &ProductService{products: products}
}

// Catalog 分页目录查询结果
type Catalog struct {
	Products   []*product.View `json:"products"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

// List 公开目录：分页返回激活商品，category 为空时不按分类过滤
func (s *ProductService) List(ctx context.Context, category string, page, limit int) (*Catalog, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, total, err := s.products.List(ctx, category, page, limit)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	views := make([]*product.View, 0, len(list))
	for _, p := range list {
		views = append(views, p.View())
	}
	return &Catalog{
		Products:   views,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// GetByID 查询单个激活商品
func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("product", id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	if !p.Active {
		return nil, NewNotFound("product", id)
	}
	return p, nil
}

// CreateProductInput 商品创建/更新请求
type CreateProductInput struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Stock       int64   `json:"stock,omitempty"`
}

func validateProduct(in *CreateProductInput) *ValidationError {
	var errs []string
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, "title is required")
	} else if len(in.Title) > 200 {
		errs = append(errs, "title must not exceed 200 characters")
	}
	if in.Price <= 0 {
		errs = append(errs, "price must be greater than 0")
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, "description is required")
	} else if len(in.Description) > 1000 {
		errs = append(errs, "description must not exceed 1000 characters")
	}
	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, "category is required")
	}
	if !product.ValidImage(in.Image) {
		errs = append(errs, "image must be an image URL or a base64 data URI")
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Create 卖家发布商品
func (s *ProductService) Create(ctx context.Context, sellerID int64, in *CreateProductInput) (*product.Product, error) {
	if verr := validateProduct(in); verr != nil {
		return nil, verr
	}
	stock := in.Stock
	if stock <= 0 {
		stock = 1
	}
	p := &product.Product{
		Title:       strings.TrimSpace(in.Title),
		Price:       in.Price,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Image:       in.Image,
		SellerID:    sellerID,
		Active:      true,
		Stock:       stock,
	}
	if err := s.products.Create(ctx, p); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return p, nil
}

// Update 卖家更新自己的商品，非所有者返回 ErrForbidden
func (s *ProductService) Update(ctx context.Context, sellerID, id int64, in *CreateProductInput) (*product.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, ErrForbidden
	}
	if verr := validateProduct(in); verr != nil {
		return nil, verr
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Price = in.Price
	p.Description = strings.TrimSpace(in.Description)
	p.Category = strings.TrimSpace(in.Category)
	p.Image = in.Image
	if in.Stock > 0 {
		p.Stock = in.Stock
	}
	if err := s.products.Update(ctx, p); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return p, nil
}

// Delete 下架商品（软删除：Active 置 false，历史订单的快照不受影响）
func (s *ProductService) Delete(ctx context.Context, sellerID, id int64) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.SellerID != sellerID {
		return ErrForbidden
	}
	p.Active = false
	if err := s.products.Update(ctx, p); err != nil {
		GetMonitor().RecordDBError()
		return err
	}
	return nil
}

// ListBySeller 卖家查看自己的在售商品
func (s *ProductService) ListBySeller(ctx context.Context, sellerID int64) ([]*product.Product, error) {
	list, err := s.products.ListBySeller(ctx, sellerID)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return list, nil
}

// Rate 给商品打分（1~5），折入滚动平均
func (s *ProductService) Rate(ctx context.Context, id int64, score float64) (*product.Product, error) {
	if score < 1 || score > 5 {
		return nil, &ValidationError{Errors: []string{"rating must be between 1 and 5"}}
	}
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.FoldRating(score)
	if err := s.products.Update(ctx, p); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return p, nil
}

// ListAll 后台用：返回全部商品（含已下架）
func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.products.ListAll(ctx)
}

// AdminUpdate 后台直接更新商品（不做所有者检查），用于运营修正
func (s *ProductService) AdminUpdate(ctx context.Context, id int64, in *CreateProductInput) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("product", id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	if verr := validateProduct(in); verr != nil {
		return nil, verr
	}
	p.Title = strings.TrimSpace(in.Title)
	p.Price = in.Price
	p.Description = strings.TrimSpace(in.Description)
	p.Category = strings.TrimSpace(in.Category)
	p.Image = in.Image
	if in.Stock > 0 {
		p.Stock = in.Stock
	}
	if err := s.products.Update(ctx, p); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return p, nil
}
