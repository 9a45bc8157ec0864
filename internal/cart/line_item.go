package cart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidItem はカートに入れられない商品入力。
var ErrInvalidItem = errors.New("invalid item")

// InvalidItemError はどの項目が不正かを持つ。
type InvalidItemError struct {
	Field  string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item: %s %s", e.Field, e.Reason)
}

func (e *InvalidItemError) Is(target error) bool {
	return target == ErrInvalidItem
}

// Product は追加時に呼び出し側から渡される商品情報。
type Product struct {
	ProductID   string
	DisplayName string
	UnitPrice   int64
	ImageRef    string
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.ProductID) == "" {
		return &InvalidItemError{Field: "product_id", Reason: "is required"}
	}
	if p.UnitPrice < 0 {
		return &InvalidItemError{Field: "unit_price", Reason: "must be >= 0"}
	}
	return nil
}

// LineItem はカートの明細1行。
// 名前・価格・画像は追加時点のスナップショット（後から再計算しない）。
type LineItem struct {
	ProductID   string           `json:"product_id"`
	DisplayName string           `json:"display_name"`
	UnitPrice   int64            `json:"unit_price"`
	ImageRef    string           `json:"image_ref,omitempty"`
	Variants    VariantSelection `json:"variants"`
	Quantity    int64            `json:"quantity"`
}

// NewLineItem は quantity=1 の新しい明細を作る。
func NewLineItem(p Product, variants VariantSelection) (LineItem, error) {
	if err := p.Validate(); err != nil {
		return LineItem{}, err
	}
	return LineItem{
		ProductID:   p.ProductID,
		DisplayName: p.DisplayName,
		UnitPrice:   p.UnitPrice,
		ImageRef:    p.ImageRef,
		Variants:    variants.Clone(),
		Quantity:    1,
	}, nil
}

func (li LineItem) Identity() Identity {
	return Identity{ProductID: li.ProductID, Variants: li.Variants}
}

func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * li.Quantity
}

// Identity は (productId, variantSelection) の組。マージと削除のキー。
type Identity struct {
	ProductID string           `json:"product_id"`
	Variants  VariantSelection `json:"variants"`
}

func (id Identity) Key() string {
	return id.ProductID + "\x00" + id.Variants.Key()
}

func (id Identity) Matches(li LineItem) bool {
	return id.ProductID == li.ProductID && id.Variants.Equal(li.Variants)
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		it.Variants = it.Variants.Clone()
		out[i] = it
	}
	return out
}
