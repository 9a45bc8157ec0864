package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"lifeline/internal/cart"
	"lifeline/internal/domain/model"
	"lifeline/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 決済が失敗するゲートウェイ
type failingGateway struct {
	initErr   error
	verify    payment.Verification
	verifyErr error
}

func (g *failingGateway) Initialize(ctx context.Context, h payment.Handoff) (payment.Checkout, error) {
	if g.initErr != nil {
		return payment.Checkout{}, g.initErr
	}
	return payment.Checkout{Reference: h.Reference, Email: h.Email, Amount: h.Amount}, nil
}

func (g *failingGateway) Verify(ctx context.Context, reference string) (payment.Verification, error) {
	return g.verify, g.verifyErr
}

type checkoutFixture struct {
	uc       *CheckoutUsecase
	carts    *CartUsecase
	registry *cart.Registry
	tx       *memTx
}

func newCheckoutFixture(t *testing.T, gw payment.Gateway) checkoutFixture {
	t.Helper()
	reg, _ := newTestRegistry()
	products := catalogMock(teeProduct(), mugProduct())
	tx := newMemTx()
	if gw == nil {
		gw = payment.NewStubGateway("pk_test", nil)
	}

	uc := NewCheckoutUsecase(reg, products, tx, gw, nil)
	n := 0
	uc.newReference = func() string {
		n++
		return "LL-test-" + string(rune('0'+n))
	}
	uc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return checkoutFixture{uc: uc, carts: NewCartUsecase(reg, products), registry: reg, tx: tx}
}

func (f checkoutFixture) fillCart(t *testing.T, sessionID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddToCart(ctx, sessionID, CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "L", "Color": "Blue"}})
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, sessionID, CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "L", "Color": "Blue"}})
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, sessionID, CartItemInput{ProductID: "mug"})
	require.NoError(t, err)
}

func TestCheckout_Begin_SnapshotsCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t, "s1")

	out, err := f.uc.Begin(ctx, "s1", " donor@example.com ")
	require.NoError(t, err)

	assert.Equal(t, "LL-test-1", out.Reference)
	assert.Equal(t, model.OrderStatusPending, out.Status)
	assert.Equal(t, int64(11500), out.Payment.Amount)
	assert.Equal(t, "donor@example.com", out.Payment.Email)
	assert.Equal(t, "pk_test", out.Payment.PublicKey)

	o, ok := f.tx.order("LL-test-1")
	require.True(t, ok)
	assert.Equal(t, "s1", o.SessionID)
	assert.Equal(t, model.OrderSourceCart, o.Source)
	require.Len(t, f.tx.items[o.ID], 2)
	assert.Equal(t, int64(2), f.tx.items[o.ID][0].Quantity)
	assert.Equal(t, "Blue", f.tx.items[o.ID][0].Variants["Color"])

	// 開始しただけではカートは残る
	cartOut, _ := f.carts.GetCart(ctx, "s1")
	assert.Len(t, cartOut.Items, 2)
}

func TestCheckout_Begin_Rejects(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.Begin(ctx, "s1", "donor@example.com")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	f.fillCart(t, "s1")
	_, err = f.uc.Begin(ctx, "s1", "Donor <donor@example.com>")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	_, err = f.uc.Begin(ctx, "s1", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	assert.Empty(t, f.tx.orders)
}

func TestCheckout_Success_MarksPaidAndClearsOwningCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t, "s1")
	f.fillCart(t, "s2")

	begun, err := f.uc.Begin(ctx, "s1", "donor@example.com")
	require.NoError(t, err)

	// 決済中に別の行を追加
	_, err = f.carts.AddToCart(ctx, "s1", CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "S", "Color": "Red"}})
	require.NoError(t, err)

	res, err := f.uc.Success(ctx, begun.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, res.Status)
	assert.True(t, res.CartCleared)

	o, _ := f.tx.order(begun.Reference)
	assert.Equal(t, model.OrderStatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)

	// 注文した行だけが消える
	s1, _ := f.carts.GetCart(ctx, "s1")
	require.Len(t, s1.Items, 1)
	assert.Equal(t, "S", s1.Items[0].Variants["Size"])
	s2, _ := f.carts.GetCart(ctx, "s2")
	assert.Len(t, s2.Items, 2)

	// 再通知は200で何もしない（カートに入れ直した分は消えない）
	_, _ = f.carts.AddToCart(ctx, "s1", CartItemInput{ProductID: "mug"})
	again, err := f.uc.Success(ctx, begun.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, again.Status)
	assert.False(t, again.CartCleared)
	s1, _ = f.carts.GetCart(ctx, "s1")
	assert.Len(t, s1.Items, 2)
}

func TestCheckout_Cancel_KeepsCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t, "s1")

	begun, err := f.uc.Begin(ctx, "s1", "donor@example.com")
	require.NoError(t, err)

	res, err := f.uc.Cancel(ctx, begun.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, res.Status)

	cartOut, _ := f.carts.GetCart(ctx, "s1")
	assert.Len(t, cartOut.Items, 2)

	_, err = f.uc.Success(ctx, begun.Reference)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	again, err := f.uc.Cancel(ctx, begun.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, again.Status)
}

func TestCheckout_CancelAfterPaid_Conflict(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t, "s1")

	begun, _ := f.uc.Begin(ctx, "s1", "donor@example.com")
	_, err := f.uc.Success(ctx, begun.Reference)
	require.NoError(t, err)

	_, err = f.uc.Cancel(ctx, begun.Reference)
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestCheckout_UnknownReference(t *testing.T) {
	f := newCheckoutFixture(t, nil)

	_, err := f.uc.Success(context.Background(), "LL-missing")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	_, err = f.uc.Cancel(context.Background(), " ")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestCheckout_BuyNow_LeavesCartUntouched(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	_, _ = f.carts.AddToCart(ctx, "s1", CartItemInput{ProductID: "mug"})

	out, err := f.uc.BuyNow(ctx, "s1", BuyNowInput{
		ProductID: "lifeline-tee",
		Variants:  map[string]string{"Size": "S", "Color": "Red"},
		Email:     "donor@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), out.Payment.Amount)

	res, err := f.uc.Success(ctx, out.Reference)
	require.NoError(t, err)
	assert.False(t, res.CartCleared)

	cartOut, _ := f.carts.GetCart(ctx, "s1")
	assert.Len(t, cartOut.Items, 1)

	o, _ := f.tx.order(out.Reference)
	assert.Equal(t, model.OrderSourceBuyNow, o.Source)
}

func TestCheckout_BuyNow_ValidatesSelection(t *testing.T) {
	f := newCheckoutFixture(t, nil)

	_, err := f.uc.BuyNow(context.Background(), "s1", BuyNowInput{ProductID: "lifeline-tee", Email: "donor@example.com"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestCheckout_GatewayInitializeFailure_CancelsOrder(t *testing.T) {
	f := newCheckoutFixture(t, &failingGateway{initErr: errors.New("widget down")})
	ctx := context.Background()
	f.fillCart(t, "s1")

	_, err := f.uc.Begin(ctx, "s1", "donor@example.com")
	assert.Equal(t, http.StatusBadGateway, statusOf(err))

	o, ok := f.tx.order("LL-test-1")
	require.True(t, ok)
	assert.Equal(t, model.OrderStatusCanceled, o.Status)
}

func TestCheckout_Success_VerificationProblems(t *testing.T) {
	cases := []struct {
		name string
		gw   *failingGateway
		want int
	}{
		{"not paid", &failingGateway{verify: payment.Verification{Paid: false, Amount: 11500}}, http.StatusPaymentRequired},
		{"amount mismatch", &failingGateway{verify: payment.Verification{Paid: true, Amount: 1}}, http.StatusConflict},
		{"gateway error", &failingGateway{verifyErr: errors.New("timeout")}, http.StatusBadGateway},
		{"unknown at gateway", &failingGateway{verifyErr: payment.ErrUnknownReference}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t, tc.gw)
			ctx := context.Background()
			f.fillCart(t, "s1")

			begun, err := f.uc.Begin(ctx, "s1", "donor@example.com")
			require.NoError(t, err)

			_, err = f.uc.Success(ctx, begun.Reference)
			assert.Equal(t, tc.want, statusOf(err))

			o, _ := f.tx.order(begun.Reference)
			assert.Equal(t, model.OrderStatusPending, o.Status)
			cartOut, _ := f.carts.GetCart(ctx, "s1")
			assert.Len(t, cartOut.Items, 2)
		})
	}
}

func TestCheckout_OrderWriteFailure(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.tx.failOn = "create"
	f.fillCart(t, "s1")

	_, err := f.uc.Begin(context.Background(), "s1", "donor@example.com")
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
}
