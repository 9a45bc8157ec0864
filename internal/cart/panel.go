package cart

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// 金額は最小単位（小数2桁）で持つ
const amountExponent = -2

// Panel はカートドロワーの開閉状態だけを持つ。
// 表示内容は Render のたびに Store から読む（コピーは持たない）。
type Panel struct {
	mu    sync.Mutex
	open  bool
	store *Store
}

func NewPanel(store *Store) *Panel {
	return &Panel{store: store}
}

func (p *Panel) Open() {
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
}

func (p *Panel) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

func (p *Panel) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = !p.open
	return p.open
}

func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Remove は表示行の同一性（indexではない）で削除する。
func (p *Panel) Remove(ctx context.Context, id Identity) bool {
	return p.store.RemoveFromCart(ctx, id.ProductID, id.Variants)
}

type PanelLine struct {
	Identity         Identity `json:"identity"`
	DisplayName      string   `json:"display_name"`
	ImageRef         string   `json:"image_ref,omitempty"`
	VariantLabel     string   `json:"variant_label,omitempty"`
	Quantity         int64    `json:"quantity"`
	UnitPrice        int64    `json:"unit_price"`
	UnitPriceDisplay string   `json:"unit_price_display"`
	Subtotal         int64    `json:"subtotal"`
	SubtotalDisplay  string   `json:"subtotal_display"`
}

type PanelView struct {
	IsOpen       bool        `json:"is_open"`
	Empty        bool        `json:"empty"`
	Lines        []PanelLine `json:"lines"`
	TotalItems   int64       `json:"total_items"`
	TotalPrice   int64       `json:"total_price"`
	TotalDisplay string      `json:"total_display"`
}

func (p *Panel) Render() PanelView {
	items := p.store.Items()

	lines := make([]PanelLine, 0, len(items))
	var totalItems, totalPrice int64
	for _, it := range items {
		sub := it.Subtotal()
		lines = append(lines, PanelLine{
			Identity:         it.Identity(),
			DisplayName:      it.DisplayName,
			ImageRef:         it.ImageRef,
			VariantLabel:     variantLabel(it.Variants),
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			UnitPriceDisplay: FormatAmount(it.UnitPrice),
			Subtotal:         sub,
			SubtotalDisplay:  FormatAmount(sub),
		})
		totalItems += it.Quantity
		totalPrice += sub
	}

	return PanelView{
		IsOpen:       p.IsOpen(),
		Empty:        len(lines) == 0,
		Lines:        lines,
		TotalItems:   totalItems,
		TotalPrice:   totalPrice,
		TotalDisplay: FormatAmount(totalPrice),
	}
}

// FormatAmount は最小単位の金額を "50.00" の形にする。
func FormatAmount(minor int64) string {
	return decimal.New(minor, amountExponent).StringFixed(-amountExponent)
}

// "Color: Red, Size: M"（軸名でソート）
func variantLabel(v VariantSelection) string {
	if len(v) == 0 {
		return ""
	}
	axes := make([]string, 0, len(v))
	for axis := range v {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	parts := make([]string, 0, len(axes))
	for _, axis := range axes {
		parts = append(parts, axis+": "+v[axis])
	}
	return strings.Join(parts, ", ")
}
