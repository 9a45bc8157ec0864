package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lifeline/internal/cart"
	"lifeline/internal/domain/model"
	repo "lifeline/internal/repository"
)

// カートの product_id（slug）を公開中の商品に解決して、選択を軸と照合する。
func resolveCartProduct(ctx context.Context, products repo.ProductRepository, slug string, variants map[string]string) (cart.Product, cart.VariantSelection, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return cart.Product{}, nil, NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	p, err := products.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return cart.Product{}, nil, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return cart.Product{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return cart.Product{}, nil, NewHTTPError(http.StatusNotFound, "product not found")
	}

	sel := cart.VariantSelection(variants).Clone()
	if err := validateVariants(p.VariantAxes, sel); err != nil {
		return cart.Product{}, nil, err
	}

	return cart.Product{
		ProductID:   p.Slug,
		DisplayName: p.Name,
		UnitPrice:   p.Price,
		ImageRef:    p.ImageURL,
	}, sel, nil
}

// 全軸が選ばれていて、選択肢が既知で、余計な軸がない
func validateVariants(axes []model.VariantAxis, sel cart.VariantSelection) error {
	known := make(map[string][]string, len(axes))
	for _, a := range axes {
		known[a.Name] = a.Options
	}

	for axis := range sel {
		if _, ok := known[axis]; !ok {
			return NewHTTPError(http.StatusBadRequest, "unknown variant: "+axis)
		}
	}
	for _, a := range axes {
		chosen, ok := sel[a.Name]
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "variant required: "+a.Name)
		}
		if !containsString(a.Options, chosen) {
			return NewHTTPError(http.StatusBadRequest, "invalid option for "+a.Name)
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// cart.ErrInvalidItem は 400 にする
func cartError(err error) error {
	if errors.Is(err, cart.ErrInvalidItem) {
		return NewHTTPError(http.StatusBadRequest, "invalid item")
	}
	if errors.Is(err, cart.ErrNoSession) {
		return NewHTTPError(http.StatusBadRequest, "no cart session")
	}
	return NewHTTPError(http.StatusInternalServerError, "internal error")
}
