package handler

import (
	"context"
	"net/http"

	"lifeline/internal/cart"
	"lifeline/internal/middleware"
	"lifeline/internal/usecase"
	"lifeline/internal/validator"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP。カートは lifeline_session Cookie ごと
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// 追加・削除の対象（product_id は商品のslug）
type CartItemRequest struct {
	ProductID string            `json:"product_id"`
	Variants  map[string]string `json:"variants"`
}

// /cart, /cart/items, /cart/panel を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, session echo.MiddlewareFunc) {
	g := e.Group("/cart", session)

	g.GET("", h.getCart)
	g.DELETE("", h.clearCart)
	g.POST("/items", h.addToCart)
	g.DELETE("/items", h.removeFromCart)

	g.GET("/panel", h.panel)
	g.POST("/panel/open", h.openPanel)
	g.POST("/panel/close", h.closePanel)
	g.POST("/panel/toggle", h.togglePanel)
}

func sessionIDFrom(c echo.Context) (string, bool) {
	return middleware.CartSessionID(c)
}

func bindCartItem(c echo.Context) (usecase.CartItemInput, bool) {
	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		return usecase.CartItemInput{}, false
	}
	if err := validator.ValidateCartItem(req.ProductID, req.Variants); err != nil {
		return usecase.CartItemInput{}, false
	}
	return usecase.CartItemInput{ProductID: req.ProductID, Variants: req.Variants}, true
}

func (h *CartHandler) getCart(c echo.Context) error {
	sid, ok := sessionIDFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	sid, ok := sessionIDFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	in, ok := bindCartItem(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), sid, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeFromCart(c echo.Context) error {
	sid, ok := sessionIDFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	in, ok := bindCartItem(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item"})
	}

	out, err := h.uc.RemoveFromCart(c.Request().Context(), sid, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	sid, ok := sessionIDFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	out, err := h.uc.ClearCart(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) panel(c echo.Context) error {
	return h.panelAction(c, h.uc.Panel)
}

func (h *CartHandler) openPanel(c echo.Context) error {
	return h.panelAction(c, h.uc.OpenPanel)
}

func (h *CartHandler) closePanel(c echo.Context) error {
	return h.panelAction(c, h.uc.ClosePanel)
}

func (h *CartHandler) togglePanel(c echo.Context) error {
	return h.panelAction(c, h.uc.TogglePanel)
}

func (h *CartHandler) panelAction(c echo.Context, fn func(ctx context.Context, sessionID string) (cart.PanelView, error)) error {
	sid, ok := sessionIDFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	view, err := fn(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
