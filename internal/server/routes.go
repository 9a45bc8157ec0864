package server

import (
	"time"

	"lifeline/internal/config"
	"lifeline/internal/handler"
	"lifeline/internal/middleware"
	"lifeline/internal/repository"

	"github.com/labstack/echo/v4"
)

// Cookieはメモリ上のセッションより長く持つ。戻ってきたらスロットから復元する
const cartCookieMaxAge = 30 * 24 * time.Hour

// main で組み立てたhandler一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	UserRepo     repository.UserRepository
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/healthz", health)

	session := middleware.CartSession(cfg.CookieSecure, cartCookieMaxAge)

	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, session)
	h.Checkout.RegisterRoutes(e, session)

	h.Auth.RegisterRoutes(e, cfg, h.UserRepo)
	h.AdminProduct.RegisterRoutes(e, cfg, h.UserRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, h.UserRepo)
}
