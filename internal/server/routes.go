package server

import (
	"cupcake/internal/config"
	"cupcake/internal/handler"
	"cupcake/internal/middleware"
	"cupcake/internal/usecase"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Products   *handler.ProductHandler
	Cart       *handler.CartHandler
	Orders     *handler.OrderHandler
	Coupons    *handler.CouponHandler
	Addresses  *handler.AddressHandler
	Delivery   *handler.DeliveryHandler
	Users      *handler.UserHandler
	AdminOrder *handler.AdminOrderHandler

	// 認証後にusersへ反映する
	UserSync *usecase.UserUsecase
}

// /api 配下をまとめて登録
func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	api := e.Group("/api")

	auth := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.EnsureUser(h.UserSync)}
	admin := append(append([]echo.MiddlewareFunc{}, auth...), middleware.AdminRoleGuard())

	//公開
	h.Products.RegisterRoutes(api)
	h.Delivery.RegisterRoutes(api)

	//ログイン必須
	h.Users.RegisterRoutes(api, auth...)
	h.Cart.RegisterRoutes(api, auth...)
	h.Orders.RegisterRoutes(api, auth...)
	h.Coupons.RegisterRoutes(api, auth...)
	h.Addresses.RegisterRoutes(api, auth...)

	//ADMINのみ
	h.AdminOrder.RegisterRoutes(api, admin...)
}
