package server

import (
	"errors"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/alfredoT7/io2-back/internal/auth"
	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/datamodels/order"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
	"github.com/alfredoT7/io2-back/internal/infra/redis"
	"github.com/alfredoT7/io2-back/internal/middleware"
	"github.com/alfredoT7/io2-back/internal/notify"
	"github.com/alfredoT7/io2-back/internal/repository/mysql"
	"github.com/alfredoT7/io2-back/internal/service"
)

const ctxUserKey = "current_user"

// ok 统一成功响应
func ok(ctx iris.Context, status int, message string, data interface{}) {
	ctx.StatusCode(status)
	body := iris.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	_ = ctx.JSON(body)
}

// fail 统一失败响应
func fail(ctx iris.Context, status int, message string, errs []string) {
	body := iris.Map{"success": false, "message": message}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	ctx.StopWithJSON(status, body)
}

// failErr 按错误类型映射 HTTP 状态码。
// 生产环境下未知错误不透出细节。
func failErr(ctx iris.Context, cfg *config.Config, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		fail(ctx, 400, "Validation failed", verr.Errors)
		return
	}
	var rerr *service.ReconciliationError
	if errors.As(err, &rerr) {
		fail(ctx, 400, rerr.Error(), nil)
		return
	}
	var nerr *service.NotFoundError
	if errors.As(err, &nerr) {
		fail(ctx, 404, nerr.Error(), nil)
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(ctx, 401, err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		fail(ctx, 403, "You do not have permission to perform this action", nil)
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrDuplicateOrderNumber):
		fail(ctx, 400, err.Error(), nil)
	default:
		zap.L().Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
		if cfg.IsProduction() {
			fail(ctx, 500, "Internal server error", nil)
			return
		}
		fail(ctx, 500, err.Error(), nil)
	}
}

// RegisterRoutes 注册所有 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config, sender notify.Sender) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo)
	orderSvc := service.NewOrderService(orderRepo, userRepo, productRepo, sender)

	// JWT 解析结果缓存：一致性哈希分键，降低热点请求的解析开销
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring,
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	app.Get("/", func(ctx iris.Context) {
		ok(ctx, 200, "API is running", iris.Map{
			"endpoints": iris.Map{
				"auth":     "/api/auth",
				"products": "/api/products",
				"orders":   "/api/orders",
			},
		})
	})

	api := app.Party("/api")

	// 路由索引
	api.Get("/", func(ctx iris.Context) {
		ok(ctx, 200, "API index", iris.Map{
			"auth": iris.Map{
				"register": "POST /api/auth/register",
				"login":    "POST /api/auth/login",
				"profile":  "GET|PUT /api/auth/profile",
			},
			"products": iris.Map{
				"list":     "GET /api/products",
				"detail":   "GET /api/products/{id}",
				"category": "GET /api/products/category/{category}",
			},
			"orders": iris.Map{
				"create":     "POST /api/orders",
				"byUser":     "GET /api/orders/user/{userId}",
				"detail":     "GET /api/orders/{orderId}",
				"status":     "PUT /api/orders/{orderId}/status",
				"statistics": "GET /api/orders/user/{userId}/statistics",
			},
		})
	})

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ok(ctx, 200, "ok", iris.Map{"time": time.Now()})
	})

	// ---------------- 公开接口 ----------------

	api.Post("/auth/register", func(ctx iris.Context) {
		var req service.RegisterInput
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		u, token, err := userSvc.Register(ctx.Request().Context(), &req)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 201, "User registered successfully", iris.Map{"user": u, "token": token})
	})

	api.Post("/auth/login", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		u, token, err := userSvc.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Login successful", iris.Map{"user": u, "token": token})
	})

	// 商品目录（公开，支持分类和分页）
	api.Get("/products", func(ctx iris.Context) {
		category := ctx.URLParam("category")
		page := ctx.URLParamIntDefault("page", 1)
		limit := ctx.URLParamIntDefault("limit", 20)
		catalog, err := productSvc.List(ctx.Request().Context(), category, page, limit)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Products retrieved", catalog)
	})

	api.Get("/products/category/{category:string}", func(ctx iris.Context) {
		category := ctx.Params().Get("category")
		page := ctx.URLParamIntDefault("page", 1)
		limit := ctx.URLParamIntDefault("limit", 20)
		catalog, err := productSvc.List(ctx.Request().Context(), category, page, limit)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Products retrieved", catalog)
	})

	api.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Product retrieved", p.View())
	})

	// ---------------- 需要登录的接口 ----------------

	authAPI := api.Party("/", func(ctx iris.Context) {
		header := ctx.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" {
			fail(ctx, 401, "Missing authorization token", nil)
			return
		}

		// 先查缓存，未命中再做签名校验
		claims, hit, err := tokenCache.Get(ctx.Request().Context(), token)
		if err != nil {
			zap.L().Warn("token cache lookup failed", zap.Error(err))
		}
		if !hit {
			claims, err = auth.ParseToken(&cfg.JWT, token)
			if err != nil {
				fail(ctx, 401, "Invalid or expired token", nil)
				return
			}
			if err := tokenCache.Set(ctx.Request().Context(), token, claims); err != nil {
				zap.L().Warn("token cache store failed", zap.Error(err))
			}
		}

		u, err := userSvc.Profile(ctx.Request().Context(), claims.UserID)
		if err != nil {
			fail(ctx, 401, "Account not found or deactivated", nil)
			return
		}
		ctx.Values().Set(ctxUserKey, u)
		ctx.Next()
	})

	currentUser := func(ctx iris.Context) *user.User {
		u, _ := ctx.Values().Get(ctxUserKey).(*user.User)
		return u
	}

	// 角色守卫
	sellerOnly := func(ctx iris.Context) {
		if u := currentUser(ctx); u == nil || !u.IsSeller() {
			fail(ctx, 403, "Seller role required", nil)
			return
		}
		ctx.Next()
	}
	buyerOnly := func(ctx iris.Context) {
		if u := currentUser(ctx); u == nil || !u.IsBuyer() {
			fail(ctx, 403, "Buyer role required", nil)
			return
		}
		ctx.Next()
	}

	// 用户资料
	authAPI.Get("/auth/profile", func(ctx iris.Context) {
		ok(ctx, 200, "Profile retrieved", currentUser(ctx))
	})

	authAPI.Put("/auth/profile", func(ctx iris.Context) {
		var req service.UpdateProfileInput
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		u, err := userSvc.UpdateProfile(ctx.Request().Context(), currentUser(ctx).ID, &req)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Profile updated", u)
	})

	authAPI.Get("/auth/users", func(ctx iris.Context) {
		list, err := userSvc.List(ctx.Request().Context(), ctx.URLParam("role"))
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Users retrieved", list)
	})

	// 商品维护（卖家）
	authAPI.Post("/products", sellerOnly, func(ctx iris.Context) {
		var req service.CreateProductInput
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		p, err := productSvc.Create(ctx.Request().Context(), currentUser(ctx).ID, &req)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 201, "Product created", p)
	})

	authAPI.Put("/products/{id:int64}", sellerOnly, func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req service.CreateProductInput
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		p, err := productSvc.Update(ctx.Request().Context(), currentUser(ctx).ID, id, &req)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Product updated", p)
	})

	authAPI.Delete("/products/{id:int64}", sellerOnly, func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.Delete(ctx.Request().Context(), currentUser(ctx).ID, id); err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Product deleted", nil)
	})

	authAPI.Get("/products/mine", sellerOnly, func(ctx iris.Context) {
		list, err := productSvc.ListBySeller(ctx.Request().Context(), currentUser(ctx).ID)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Products retrieved", list)
	})

	// 商品评分（买家）
	authAPI.Post("/products/{id:int64}/rating", buyerOnly, func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Score float64 `json:"score"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		p, err := productSvc.Rate(ctx.Request().Context(), id, req.Score)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Rating recorded", p.View())
	})

	// ---------------- 订单 ----------------

	// 下单（带限流）
	authAPI.Post("/orders", middleware.OrderRateLimit(), func(ctx iris.Context) {
		var req service.CreateOrderInput
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		o, err := orderSvc.Create(ctx.Request().Context(), currentUser(ctx).ID, &req)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 201, "Order created successfully", o)
	})

	// 用户订单列表（本人或卖家可查）
	authAPI.Get("/orders/user/{userId:int64}", func(ctx iris.Context) {
		userID, _ := ctx.Params().GetInt64("userId")
		cu := currentUser(ctx)
		if cu.ID != userID && !cu.IsSeller() {
			fail(ctx, 403, "You can only view your own orders", nil)
			return
		}

		var f order.Filter
		f.Status = ctx.URLParam("status")
		if v := ctx.URLParam("from"); v != "" {
			if t, err := time.Parse("2006-01-02", v); err == nil {
				f.From = &t
			}
		}
		if v := ctx.URLParam("to"); v != "" {
			if t, err := time.Parse("2006-01-02", v); err == nil {
				f.To = &t
			}
		}
		page := ctx.URLParamIntDefault("page", 1)
		pageSize := ctx.URLParamIntDefault("page_size", 10)

		result, err := orderSvc.ListByUser(ctx.Request().Context(), userID, f, page, pageSize)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Orders retrieved", result)
	})

	// 单个订单（本人或卖家可查）
	authAPI.Get("/orders/{orderId:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("orderId")
		o, err := orderSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		cu := currentUser(ctx)
		if o.UserID != cu.ID && !cu.IsSeller() {
			fail(ctx, 403, "You can only view your own orders", nil)
			return
		}
		ok(ctx, 200, "Order retrieved", o)
	})

	// 更新订单状态（卖家）
	authAPI.Put("/orders/{orderId:int64}/status", sellerOnly, func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("orderId")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		o, err := orderSvc.UpdateStatus(ctx.Request().Context(), id, req.Status)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Order status updated", o)
	})

	// 用户订单统计（本人或卖家可查）
	authAPI.Get("/orders/user/{userId:int64}/statistics", func(ctx iris.Context) {
		userID, _ := ctx.Params().GetInt64("userId")
		cu := currentUser(ctx)
		if cu.ID != userID && !cu.IsSeller() {
			fail(ctx, 403, "You can only view your own statistics", nil)
			return
		}
		stats, err := orderSvc.Statistics(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Statistics retrieved", stats)
	})

	// 确认消息通道状态
	authAPI.Get("/notifications/status", func(ctx iris.Context) {
		ready := sender != nil && sender.IsReady()
		ok(ctx, 200, "Notification channel status", iris.Map{"ready": ready})
	})
}
