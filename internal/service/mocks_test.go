package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/datamodels/order"
	"github.com/alfredoT7/io2-back/internal/datamodels/product"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
	"github.com/alfredoT7/io2-back/internal/notify"
)

// 内存仓储，行为与 mysql 实现保持一致（找不到返回 gorm.ErrRecordNotFound，
// 唯一键冲突返回 gorm.ErrDuplicatedKey）

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int64]*user.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) List(ctx context.Context, role string) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, u := range r.users {
		if !u.Active {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*product.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{nextID: 1, products: map[int64]*product.Product{}}
}

func (r *memProductRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) List(ctx context.Context, category string, page, limit int) ([]*product.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*product.Product
	for _, p := range r.products {
		if !p.Active {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memProductRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*product.Product
	for _, p := range r.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProductRepo) ListBySeller(ctx context.Context, sellerID int64) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*product.Product
	for _, p := range r.products {
		if p.Active && p.SellerID == sellerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*order.Order
	// failCreates 让接下来 N 次 Create 返回唯一键冲突，用于撞号重试测试
	failCreates int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{nextID: 1, orders: map[int64]*order.Order{}}
}

func (r *memOrderRepo) Create(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates > 0 {
		r.failCreates--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	o.ID = r.nextID
	r.nextID++
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) ListByUser(ctx context.Context, userID int64, f order.Filter, page, pageSize int) ([]*order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*order.Order
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.From != nil && o.OrderedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.OrderedAt.After(*f.To) {
			continue
		}
		cp := *o
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OrderedAt.After(all[j].OrderedAt) })
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memOrderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.Order
	for _, o := range r.orders {
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id int64, status string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) MaxOrderNumber(ctx context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var max string
	for _, o := range r.orders {
		if strings.HasPrefix(o.OrderNumber, prefix) && o.OrderNumber > max {
			max = o.OrderNumber
		}
	}
	return max, nil
}

func (r *memOrderRepo) StatsByUser(ctx context.Context, userID int64) (*order.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &order.Stats{ByStatus: map[string]int64{}}
	methods := map[string]int64{}
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		stats.TotalOrders++
		stats.TotalSpent += o.Total
		stats.ByStatus[o.Status]++
		methods[o.Payment.Method]++
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrder = stats.TotalSpent / float64(stats.TotalOrders)
		var best int64
		for m, n := range methods {
			if n > best {
				best = n
				stats.TopPaymentMethod = m
			}
		}
	}
	return stats, nil
}

// fakeSender 记录发送调用，可配置失败
type fakeSender struct {
	mu    sync.Mutex
	sent  []notify.Message
	err   error
	ready bool
}

func (s *fakeSender) Connect(ctx context.Context) error { s.ready = true; return nil }
func (s *fakeSender) IsReady() bool                     { return s.ready }

func (s *fakeSender) Send(ctx context.Context, o *order.Order, buyer *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, notify.Message{
		OrderNumber: o.OrderNumber,
		Phone:       notify.FormatPhone(o.Shipping.Phone),
		Body:        notify.FormatOrderMessage(o, buyer),
	})
	return nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
