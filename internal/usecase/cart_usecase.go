package usecase

import (
	"context"

	"lifeline/internal/cart"
	repo "lifeline/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートの状態はセッションごとの cart.Store が持つ。
type CartUsecase struct {
	sessions    *cart.Registry
	productRepo repo.ProductRepository
}

func NewCartUsecase(sessions *cart.Registry, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		sessions:    sessions,
		productRepo: productRepo,
	}
}

// POST /cart/items, DELETE /cart/items の入力
type CartItemInput struct {
	ProductID string
	Variants  map[string]string
}

type CartLineOutput struct {
	ProductID   string            `json:"product_id"`
	DisplayName string            `json:"display_name"`
	UnitPrice   int64             `json:"unit_price"`
	ImageRef    string            `json:"image_ref,omitempty"`
	Variants    map[string]string `json:"variants"`
	Quantity    int64             `json:"quantity"`
	Subtotal    int64             `json:"subtotal"`
}

type CartResponse struct {
	Items        []CartLineOutput `json:"items"`
	TotalItems   int64            `json:"total_items"`
	TotalPrice   int64            `json:"total_price"`
	TotalDisplay string           `json:"total_display"`
	IsOpen       bool             `json:"is_open"`
}

func toCartResponse(s *cart.Session) CartResponse {
	items := s.Store.Items()
	out := CartResponse{
		Items:      make([]CartLineOutput, 0, len(items)),
		TotalItems: s.Store.TotalItems(),
		TotalPrice: s.Store.TotalPrice(),
		IsOpen:     s.Panel.IsOpen(),
	}
	out.TotalDisplay = cart.FormatAmount(out.TotalPrice)
	for _, li := range items {
		out.Items = append(out.Items, CartLineOutput{
			ProductID:   li.ProductID,
			DisplayName: li.DisplayName,
			UnitPrice:   li.UnitPrice,
			ImageRef:    li.ImageRef,
			Variants:    li.Variants,
			Quantity:    li.Quantity,
			Subtotal:    li.Subtotal(),
		})
	}
	return out
}

func (u *CartUsecase) session(ctx context.Context, sessionID string) (*cart.Session, error) {
	s, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, cartError(err)
	}
	return s, nil
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	return toCartResponse(s), nil
}

// 同じ商品・同じ選択なら数量+1、違えば行を追加。パネルも開く
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in CartItemInput) (CartResponse, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}

	p, sel, err := resolveCartProduct(ctx, u.productRepo, in.ProductID, in.Variants)
	if err != nil {
		return CartResponse{}, err
	}

	if _, err := s.Store.AddToCart(ctx, p, sel); err != nil {
		return CartResponse{}, cartError(err)
	}
	return toCartResponse(s), nil
}

// 行ごと削除。無ければ何もしない
func (u *CartUsecase) RemoveFromCart(ctx context.Context, sessionID string, in CartItemInput) (CartResponse, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}

	s.Panel.Remove(ctx, cart.Identity{
		ProductID: in.ProductID,
		Variants:  cart.VariantSelection(in.Variants),
	})
	return toCartResponse(s), nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) (CartResponse, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}

	s.Store.ClearCart(ctx)
	return toCartResponse(s), nil
}

func (u *CartUsecase) Panel(ctx context.Context, sessionID string) (cart.PanelView, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return cart.PanelView{}, err
	}
	return s.Panel.Render(), nil
}

func (u *CartUsecase) OpenPanel(ctx context.Context, sessionID string) (cart.PanelView, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return cart.PanelView{}, err
	}
	s.Panel.Open()
	return s.Panel.Render(), nil
}

func (u *CartUsecase) ClosePanel(ctx context.Context, sessionID string) (cart.PanelView, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return cart.PanelView{}, err
	}
	s.Panel.Close()
	return s.Panel.Render(), nil
}

func (u *CartUsecase) TogglePanel(ctx context.Context, sessionID string) (cart.PanelView, error) {
	s, err := u.session(ctx, sessionID)
	if err != nil {
		return cart.PanelView{}, err
	}
	s.Panel.Toggle()
	return s.Panel.Render(), nil
}
