package product

import (
	"context"
	"math"
	"regexp"
	"time"
)

// Rating 商品评分：rate 为所有评分的滚动平均（保留一位小数），count 为参与计算的评分数
type Rating struct {
	Rate  float64 `gorm:"column:rate" json:"rate"`
	Count int64   `gorm:"column:count" json:"count"`
}

// Product 商品模型
type Product struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Price       float64   `gorm:"not null" json:"price"`
	Description string    `gorm:"size:1000;not null" json:"description"`
	Category    string    `gorm:"size:64;index" json:"category"`
	Image       string    `gorm:"size:1024;not null" json:"image"` // 图片 URL 或 base64 内联图
	Rating      Rating    `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	SellerID    int64     `gorm:"index;not null" json:"seller_id"` // 创建商品的卖家
	Active      bool      `gorm:"index;default:true" json:"active"`
	Stock       int64     `gorm:"default:1" json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// View 对外目录展示结构（隐藏卖家/库存等内部字段）
type View struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// View 转为对外展示结构
func (p *Product) View() *View {
	return &View{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
		Rating:      p.Rating,
	}
}

// FoldRating 把一个新评分折入滚动平均，结果四舍五入到一位小数
func (p *Product) FoldRating(score float64) {
	total := p.Rating.Rate*float64(p.Rating.Count) + score
	p.Rating.Count++
	p.Rating.Rate = math.Round(total/float64(p.Rating.Count)*10) / 10
}

var (
	imageURL    = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|gif|webp)$`)
	imageInline = regexp.MustCompile(`^data:image/(jpeg|jpg|png|gif|webp);base64,`)
)

// ValidImage 图片字段必须是带图片扩展名的 URL，或 data:image base64 内联图
func ValidImage(v string) bool {
	return imageURL.MatchString(v) || imageInline.MatchString(v)
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	// List 分页返回激活商品，category 为空时不过滤；同时返回总数
	List(ctx context.Context, category string, page, limit int) ([]*Product, int64, error)
	// ListAll 后台用：返回包括已下架在内的所有商品
	ListAll(ctx context.Context) ([]*Product, error)
	// ListBySeller 返回某卖家的激活商品
	ListBySeller(ctx context.Context, sellerID int64) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
}
