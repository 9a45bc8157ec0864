package usecase

import (
	"context"
	"net/http"
	"testing"

	"lifeline/internal/domain/model"
	repo "lifeline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCartUsecase_AddMergesAndOpensPanel(t *testing.T) {
	reg, _ := newTestRegistry()
	uc := NewCartUsecase(reg, catalogMock(teeProduct(), mugProduct()))
	ctx := context.Background()

	out, err := uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "L", "Color": "Red"}})
	require.NoError(t, err)
	assert.True(t, out.IsOpen)

	out, err = uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Color": "Red", "Size": "L"}})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(2), out.Items[0].Quantity)
	assert.Equal(t, int64(10000), out.Items[0].Subtotal)
	assert.Equal(t, "Lifeline Tee", out.Items[0].DisplayName)

	out, err = uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "mug"})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, int64(3), out.TotalItems)
	assert.Equal(t, int64(11500), out.TotalPrice)
	assert.Equal(t, "115.00", out.TotalDisplay)
}

func TestCartUsecase_AddRejectsBadSelections(t *testing.T) {
	inactive := mugProduct()
	inactive.Slug = "retired"
	inactive.IsActive = false

	reg, _ := newTestRegistry()
	uc := NewCartUsecase(reg, catalogMock(teeProduct(), inactive))
	ctx := context.Background()

	cases := []struct {
		name string
		in   CartItemInput
		want int
	}{
		{"unknown product", CartItemInput{ProductID: "nope"}, http.StatusNotFound},
		{"inactive product", CartItemInput{ProductID: "retired"}, http.StatusNotFound},
		{"empty id", CartItemInput{ProductID: " "}, http.StatusBadRequest},
		{"missing axis", CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "L"}}, http.StatusBadRequest},
		{"unknown option", CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "XXL", "Color": "Red"}}, http.StatusBadRequest},
		{"unknown axis", CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "L", "Color": "Red", "Fit": "Slim"}}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.AddToCart(ctx, "s1", tc.in)
			assert.Equal(t, tc.want, statusOf(err))
		})
	}

	out, err := uc.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.False(t, out.IsOpen)
}

func TestCartUsecase_NegativePriceIsInvalidItem(t *testing.T) {
	broken := mugProduct()
	broken.Price = -1

	reg, _ := newTestRegistry()
	uc := NewCartUsecase(reg, catalogMock(broken))

	_, err := uc.AddToCart(context.Background(), "s1", CartItemInput{ProductID: "mug"})
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "invalid item", he.Message)
}

func TestCartUsecase_RemoveWholeLineAndMissingIsNoop(t *testing.T) {
	reg, _ := newTestRegistry()
	uc := NewCartUsecase(reg, catalogMock(teeProduct(), mugProduct()))
	ctx := context.Background()

	red := map[string]string{"Size": "M", "Color": "Red"}
	for i := 0; i < 3; i++ {
		_, err := uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "lifeline-tee", Variants: red})
		require.NoError(t, err)
	}
	_, _ = uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "mug"})

	out, err := uc.RemoveFromCart(ctx, "s1", CartItemInput{ProductID: "lifeline-tee", Variants: map[string]string{"Size": "S", "Color": "Red"}})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)

	out, err = uc.RemoveFromCart(ctx, "s1", CartItemInput{ProductID: "lifeline-tee", Variants: red})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "mug", out.Items[0].ProductID)
}

func TestCartUsecase_SessionsAreIsolated(t *testing.T) {
	reg, _ := newTestRegistry()
	uc := NewCartUsecase(reg, catalogMock(mugProduct()))
	ctx := context.Background()

	_, _ = uc.AddToCart(ctx, "a", CartItemInput{ProductID: "mug"})

	out, err := uc.GetCart(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	_, err = uc.GetCart(ctx, "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestCartUsecase_ClearAndPanel(t *testing.T) {
	reg, slots := newTestRegistry()
	uc := NewCartUsecase(reg, catalogMock(mugProduct()))
	ctx := context.Background()

	_, _ = uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "mug"})

	view, err := uc.ClosePanel(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, view.IsOpen)
	assert.Len(t, view.Lines, 1)

	view, err = uc.TogglePanel(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, view.IsOpen)

	out, err := uc.ClearCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	_, err = slots.Get(ctx, "lifeline_cart:s1")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	view, err = uc.Panel(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, view.Empty)

	view, err = uc.OpenPanel(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, view.IsOpen)
}

func TestCartUsecase_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	reg, _ := newTestRegistry()
	products := new(ProductRepoMock)
	before := mugProduct()
	after := mugProduct()
	after.Price = 9999
	products.On("FindBySlug", mock.Anything, "mug").Return(before, nil).Once()
	products.On("FindBySlug", mock.Anything, "mug").Return(after, nil).Once()

	uc := NewCartUsecase(reg, products)
	ctx := context.Background()

	_, _ = uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "mug"})
	out, err := uc.AddToCart(ctx, "s1", CartItemInput{ProductID: "mug"})
	require.NoError(t, err)

	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(1500), out.Items[0].UnitPrice)
	assert.Equal(t, int64(3000), out.TotalPrice)
	products.AssertExpectations(t)
}

func TestValidateVariants_NoAxesAcceptsEmpty(t *testing.T) {
	assert.NoError(t, validateVariants(nil, nil))
	assert.Error(t, validateVariants(nil, map[string]string{"Size": "L"}))
	assert.NoError(t, validateVariants([]model.VariantAxis{{Name: "Size", Options: []string{"L"}}}, map[string]string{"Size": "L"}))
}
