package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/datamodels/product"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
	"github.com/alfredoT7/io2-back/internal/repository/mysql"
)

// 开发用：初始化一个卖家账号和一批示例商品，方便本地联调
func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db := mysql.Init(&cfg.MySQL)

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	ctx := context.Background()

	// 卖家账号（已存在则复用）
	seller, err := userRepo.GetByEmail(ctx, "seller@example.com")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, _ := bcrypt.GenerateFromPassword([]byte("seller123"), 12)
		seller = &user.User{
			FullName: "Demo Seller",
			Phone:    "70000001",
			Email:    "seller@example.com",
			Password: string(hash),
			Role:     user.RoleSeller,
			Active:   true,
		}
		if err := userRepo.Create(ctx, seller); err != nil {
			log.Fatalf("create seller failed: %v", err)
		}
	} else if err != nil {
		log.Fatalf("lookup seller failed: %v", err)
	}

	products := []*product.Product{
		{Title: "Fjallraven Foldsack Backpack", Price: 109.95, Description: "Perfect pack for everyday use and walks in the forest", Category: "men's clothing", Image: "https://i.imgur.com/backpack.jpg"},
		{Title: "Mens Casual Premium Slim Fit T-Shirt", Price: 22.30, Description: "Slim-fitting style, contrast raglan long sleeve", Category: "men's clothing", Image: "https://i.imgur.com/tshirt.jpg"},
		{Title: "Mens Cotton Jacket", Price: 55.99, Description: "Great outerwear jacket for spring and autumn", Category: "men's clothing", Image: "https://i.imgur.com/jacket.jpg"},
		{Title: "Womens 3-in-1 Snowboard Jacket", Price: 56.99, Description: "Detachable liner, stand collar, warm winter coat", Category: "women's clothing", Image: "https://i.imgur.com/snowjacket.jpg"},
		{Title: "Womens Short Sleeve Moisture Shirt", Price: 7.95, Description: "100% polyester, lightweight and breathable", Category: "women's clothing", Image: "https://i.imgur.com/moisture.jpg"},
		{Title: "Gold Plated Princess Ring", Price: 9.99, Description: "Classic created wedding engagement solitaire", Category: "jewelery", Image: "https://i.imgur.com/ring.jpg"},
		{Title: "Silver Dragon Bracelet", Price: 695.00, Description: "From our Legends collection, inspired by the dragon", Category: "jewelery", Image: "https://i.imgur.com/bracelet.jpg"},
		{Title: "WD 2TB External Hard Drive", Price: 64.00, Description: "USB 3.0 and USB 2.0 compatibility, fast data transfers", Category: "electronics", Image: "https://i.imgur.com/harddrive.jpg"},
		{Title: "Acer 21.5 inch Full HD Monitor", Price: 599.00, Description: "IPS panel, ultra-thin design, Radeon FreeSync", Category: "electronics", Image: "https://i.imgur.com/monitor.jpg"},
		{Title: "SanDisk 1TB Internal SSD", Price: 109.00, Description: "Easy upgrade for faster boot up and shutdown", Category: "electronics", Image: "https://i.imgur.com/ssd.jpg"},
	}

	created := 0
	for _, p := range products {
		p.SellerID = seller.ID
		p.Active = true
		p.Stock = 50
		if err := productRepo.Create(ctx, p); err != nil {
			log.Printf("create product %q failed: %v", p.Title, err)
			continue
		}
		created++
	}

	fmt.Printf("seed complete: seller id = %d, %d products created\n", seller.ID, created)
	fmt.Println("next steps:")
	fmt.Println("1) start the web server:    go run ./cmd/web")
	fmt.Println("2) start the notify worker: go run ./cmd/notify-worker")
	fmt.Println("3) register a buyer via POST /api/auth/register and place an order via POST /api/orders")
}
