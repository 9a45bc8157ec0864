package handler

import (
	"net/http"

	"lifeline/internal/usecase"
	"lifeline/internal/validator"

	"github.com/labstack/echo/v4"
)

// /checkout。決済ウィジェットへの受け渡しと、戻り（success / cancel）
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	Email string `json:"email"`
}

type BuyNowRequest struct {
	ProductID string            `json:"product_id"`
	Variants  map[string]string `json:"variants"`
	Email     string            `json:"email"`
}

// セッションが必要なのは開始側だけ
func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, session echo.MiddlewareFunc) {
	e.POST("/checkout", h.begin, session)
	e.POST("/checkout/buy-now", h.buyNow, session)

	e.POST("/checkout/:reference/success", h.success)
	e.POST("/checkout/:reference/cancel", h.cancel)
}

func (h *CheckoutHandler) begin(c echo.Context) error {
	sid, ok := sessionIDFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid email"})
	}

	out, err := h.uc.Begin(c.Request().Context(), sid, req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CheckoutHandler) buyNow(c echo.Context) error {
	sid, ok := sessionIDFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	var req BuyNowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateCartItem(req.ProductID, req.Variants); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item"})
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid email"})
	}

	out, err := h.uc.BuyNow(c.Request().Context(), sid, usecase.BuyNowInput{
		ProductID: req.ProductID,
		Variants:  req.Variants,
		Email:     req.Email,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CheckoutHandler) success(c echo.Context) error {
	out, err := h.uc.Success(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) cancel(c echo.Context) error {
	out, err := h.uc.Cancel(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
