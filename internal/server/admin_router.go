package server

import (
	"github.com/kataras/iris/v12"

	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/repository/mysql"
	"github.com/alfredoT7/io2-back/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口与前台服务分离，只在内网暴露，不做用户级鉴权。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo)
	orderSvc := service.NewOrderService(orderRepo, userRepo, productRepo, nil)

	api := app.Party("/api")

	// ---------- 订单管理 ----------

	// 最新订单
	api.Get("/orders", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 50)
		list, err := orderSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Orders retrieved", list)
	})

	// 单个订单
	api.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Order retrieved", o)
	})

	// 更新订单状态
	api.Put("/orders/{id:int64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
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

	// ---------- 用户管理 ----------

	// 用户列表（支持按角色过滤）
	api.Get("/users", func(ctx iris.Context) {
		list, err := userSvc.List(ctx.Request().Context(), ctx.URLParam("role"))
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Users retrieved", list)
	})

	// ---------- 商品管理 ----------

	// 商品列表（后台用：返回包括已下架在内的所有商品）
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Products retrieved", list)
	})

	// 更新商品（运营修正，不做所有者检查）
	api.Put("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req service.CreateProductInput
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, "Invalid request body", nil)
			return
		}
		p, err := productSvc.AdminUpdate(ctx.Request().Context(), id, &req)
		if err != nil {
			failErr(ctx, cfg, err)
			return
		}
		ok(ctx, 200, "Product updated", p)
	})

	// ---------- 监控 ----------

	// 订单链路运行指标
	api.Get("/monitor", func(ctx iris.Context) {
		ok(ctx, 200, "Monitor stats", service.GetMonitor().GetStats())
	})
}
