package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"lifeline/internal/cart"
	"lifeline/internal/domain/model"
	"lifeline/internal/payment"
	repo "lifeline/internal/repository"
	auth "lifeline/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// カートのスナップショットを注文にして決済へ渡す。
type CheckoutUsecase struct {
	sessions    *cart.Registry
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	gateway     payment.Gateway
	logger      *zap.Logger

	now          func() time.Time
	newReference func() string
}

// DI
func NewCheckoutUsecase(
	sessions *cart.Registry,
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	gateway payment.Gateway,
	logger *zap.Logger,
) *CheckoutUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutUsecase{
		sessions:     sessions,
		productRepo:  productRepo,
		tx:           tx,
		gateway:      gateway,
		logger:       logger,
		now:          time.Now,
		newReference: func() string { return "LL-" + uuid.NewString() },
	}
}

type BuyNowInput struct {
	ProductID string
	Variants  map[string]string
	Email     string
}

type CheckoutOutput struct {
	OrderID   int64             `json:"order_id"`
	Reference string            `json:"reference"`
	Status    model.OrderStatus `json:"status"`
	Payment   payment.Checkout  `json:"payment"`
}

type PaymentResultOutput struct {
	Reference   string            `json:"reference"`
	Status      model.OrderStatus `json:"status"`
	TotalPrice  int64             `json:"total_price"`
	CartCleared bool              `json:"cart_cleared"`
}

func normalizeCheckoutEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if !auth.IsValidEmailFormat(email) {
		return "", NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	return email, nil
}

// POST /checkout
func (u *CheckoutUsecase) Begin(ctx context.Context, sessionID string, email string) (CheckoutOutput, error) {
	email, err := normalizeCheckoutEmail(email)
	if err != nil {
		return CheckoutOutput{}, err
	}

	s, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return CheckoutOutput{}, cartError(err)
	}

	// この時点の内容で注文を作る。後からカートが変わっても注文は変わらない
	items := s.Store.Items()
	if len(items) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	return u.placeOrder(ctx, sessionID, email, model.OrderSourceCart, items)
}

// POST /checkout/buy-now。カートには触らない
func (u *CheckoutUsecase) BuyNow(ctx context.Context, sessionID string, in BuyNowInput) (CheckoutOutput, error) {
	email, err := normalizeCheckoutEmail(in.Email)
	if err != nil {
		return CheckoutOutput{}, err
	}

	p, sel, err := resolveCartProduct(ctx, u.productRepo, in.ProductID, in.Variants)
	if err != nil {
		return CheckoutOutput{}, err
	}
	li, err := cart.NewLineItem(p, sel)
	if err != nil {
		return CheckoutOutput{}, cartError(err)
	}

	return u.placeOrder(ctx, sessionID, email, model.OrderSourceBuyNow, []cart.LineItem{li})
}

func (u *CheckoutUsecase) placeOrder(ctx context.Context, sessionID, email string, source model.OrderSource, items []cart.LineItem) (CheckoutOutput, error) {
	var total int64
	for _, li := range items {
		total += li.Subtotal()
	}
	if total <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "nothing to pay")
	}

	reference := u.newReference()
	var orderID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, model.Order{
			Reference:  reference,
			SessionID:  sessionID,
			Email:      email,
			Source:     source,
			Status:     model.OrderStatusPending,
			TotalPrice: total,
		})
		if err != nil {
			return err
		}
		orderID = id

		rows := make([]model.OrderItem, 0, len(items))
		for _, li := range items {
			rows = append(rows, model.OrderItem{
				OrderID:             id,
				ProductID:           li.ProductID,
				ProductNameSnapshot: li.DisplayName,
				Variants:            li.Variants.Clone(),
				UnitPriceSnapshot:   li.UnitPrice,
				Quantity:            li.Quantity,
			})
		}
		return r.OrderItems().CreateBulk(ctx, id, rows)
	})
	if err != nil {
		u.logger.Error("create order", zap.String("reference", reference), zap.Error(err))
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	co, err := u.gateway.Initialize(ctx, payment.Handoff{
		Reference: reference,
		Email:     email,
		Amount:    total,
	})
	if err != nil {
		u.logger.Error("payment initialize failed", zap.String("reference", reference), zap.Error(err))
		u.markCanceled(ctx, orderID)
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "payment unavailable")
	}

	u.logger.Info("checkout started",
		zap.String("reference", reference),
		zap.String("source", string(source)),
		zap.Int64("amount", total),
	)

	return CheckoutOutput{
		OrderID:   orderID,
		Reference: reference,
		Status:    model.OrderStatusPending,
		Payment:   co,
	}, nil
}

func (u *CheckoutUsecase) markCanceled(ctx context.Context, orderID int64) {
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Orders().UpdateStatusFrom(ctx, orderID, model.OrderStatusPending, model.OrderStatusCanceled, u.now())
	})
	if err != nil {
		u.logger.Warn("cancel order failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (u *CheckoutUsecase) findOrder(ctx context.Context, reference string) (model.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid reference")
	}

	var o model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		o, err = r.Orders().FindByReference(ctx, reference)
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}

// POST /checkout/:reference/success
// 支払い確認後に PAID にして、カート経由ならそのセッションのカートから注文した行を消す。
func (u *CheckoutUsecase) Success(ctx context.Context, reference string) (PaymentResultOutput, error) {
	o, err := u.findOrder(ctx, reference)
	if err != nil {
		return PaymentResultOutput{}, err
	}

	switch o.Status {
	case model.OrderStatusPaid:
		// 二重通知
		return PaymentResultOutput{Reference: o.Reference, Status: o.Status, TotalPrice: o.TotalPrice}, nil
	case model.OrderStatusCanceled:
		return PaymentResultOutput{}, NewHTTPError(http.StatusConflict, "order is canceled")
	}

	v, err := u.gateway.Verify(ctx, o.Reference)
	if errors.Is(err, payment.ErrUnknownReference) {
		return PaymentResultOutput{}, NewHTTPError(http.StatusNotFound, "payment not found")
	}
	if err != nil {
		u.logger.Error("payment verify failed", zap.String("reference", o.Reference), zap.Error(err))
		return PaymentResultOutput{}, NewHTTPError(http.StatusBadGateway, "payment verification failed")
	}
	if !v.Paid {
		return PaymentResultOutput{}, NewHTTPError(http.StatusPaymentRequired, "payment not completed")
	}
	if v.Amount != o.TotalPrice {
		u.logger.Warn("payment amount mismatch",
			zap.String("reference", o.Reference),
			zap.Int64("expected", o.TotalPrice),
			zap.Int64("paid", v.Amount),
		)
		return PaymentResultOutput{}, NewHTTPError(http.StatusConflict, "amount mismatch")
	}

	var ordered []model.OrderItem
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().UpdateStatusFrom(ctx, o.ID, model.OrderStatusPending, model.OrderStatusPaid, u.now()); err != nil {
			return err
		}
		var err error
		ordered, err = r.OrderItems().ListByOrderID(ctx, o.ID)
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		// 同時に別の通知が先に処理した
		latest, ferr := u.findOrder(ctx, o.Reference)
		if ferr != nil {
			return PaymentResultOutput{}, ferr
		}
		if latest.Status == model.OrderStatusPaid {
			return PaymentResultOutput{Reference: latest.Reference, Status: latest.Status, TotalPrice: latest.TotalPrice}, nil
		}
		return PaymentResultOutput{}, NewHTTPError(http.StatusConflict, "order is not pending")
	}
	if err != nil {
		return PaymentResultOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := PaymentResultOutput{Reference: o.Reference, Status: model.OrderStatusPaid, TotalPrice: o.TotalPrice}

	// 注文した行だけをカートから消す。Begin の後に入れた別の行は残る。
	// 同じ行の数量を後から増やしていた場合も行ごと消える（行単位の削除しかない）
	if o.Source == model.OrderSourceCart && o.SessionID != "" {
		s, err := u.sessions.Get(ctx, o.SessionID)
		if err != nil {
			u.logger.Warn("clear cart after payment", zap.String("reference", o.Reference), zap.Error(err))
		} else {
			ids := make([]cart.Identity, 0, len(ordered))
			for _, it := range ordered {
				ids = append(ids, cart.Identity{ProductID: it.ProductID, Variants: cart.VariantSelection(it.Variants)})
			}
			removed := s.Store.RemoveLines(ctx, ids)
			out.CartCleared = true
			u.logger.Debug("ordered lines removed from cart", zap.String("reference", o.Reference), zap.Int("lines", removed))
		}
	}

	u.logger.Info("payment confirmed", zap.String("reference", o.Reference), zap.Int64("amount", o.TotalPrice))
	return out, nil
}

// POST /checkout/:reference/cancel。カートはそのまま残す
func (u *CheckoutUsecase) Cancel(ctx context.Context, reference string) (PaymentResultOutput, error) {
	o, err := u.findOrder(ctx, reference)
	if err != nil {
		return PaymentResultOutput{}, err
	}

	switch o.Status {
	case model.OrderStatusCanceled:
		return PaymentResultOutput{Reference: o.Reference, Status: o.Status, TotalPrice: o.TotalPrice}, nil
	case model.OrderStatusPaid:
		return PaymentResultOutput{}, NewHTTPError(http.StatusConflict, "order is already paid")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Orders().UpdateStatusFrom(ctx, o.ID, model.OrderStatusPending, model.OrderStatusCanceled, u.now())
	})
	if errors.Is(err, repo.ErrNotFound) {
		return PaymentResultOutput{}, NewHTTPError(http.StatusConflict, "order is not pending")
	}
	if err != nil {
		return PaymentResultOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return PaymentResultOutput{Reference: o.Reference, Status: model.OrderStatusCanceled, TotalPrice: o.TotalPrice}, nil
}
