package cart

import (
	"context"
	"slices"
	"sync"
)

// Store はセッションのカート明細の正本。
// 同一性（productId + variantSelection）ごとに1行を保証する。
// 変更のたびに Persister へ全体を保存するが、保存の成否でメモリ上の状態は変えない。
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	persister Persister
	onAdd     []func(LineItem)

	// 復元に成功したか。失敗したままなら最初の変更まで読み直す
	hydrated bool
	changed  bool
}

// NewStore は persister から明細を復元して作る。
// スロットを読めなければ空で始める。
func NewStore(ctx context.Context, persister Persister) *Store {
	s := &Store{items: []LineItem{}, persister: persister}
	s.hydrateLocked(ctx)
	return s
}

func (s *Store) hydrateLocked(ctx context.Context) {
	// 切断されたリクエストでも読み込みは最後まで行う
	items, err := s.persister.Load(context.WithoutCancel(ctx))
	if err != nil {
		return
	}
	if items == nil {
		items = []LineItem{}
	}
	s.items = items
	s.hydrated = true
}

// Rehydrate は前回の復元が失敗していて、まだ変更がなければ読み直す。
// 復元済みなら true。
func (s *Store) Rehydrate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hydrated && !s.changed {
		s.hydrateLocked(ctx)
	}
	return s.hydrated
}

// Hydrated はスロットからの復元に成功したか。
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// 変更の直前に呼ぶ。読めないまま上書きするとスロットの明細が消える
func (s *Store) beforeChangeLocked(ctx context.Context) {
	if !s.hydrated && !s.changed {
		s.hydrateLocked(ctx)
	}
}

// OnAdd は追加成功後に呼ぶ関数を登録する。
func (s *Store) OnAdd(fn func(LineItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAdd = append(s.onAdd, fn)
}

// AddToCart は同じ同一性の行があれば数量+1、なければ quantity=1 で末尾に追加する。
func (s *Store) AddToCart(ctx context.Context, p Product, variants VariantSelection) (LineItem, error) {
	if err := p.Validate(); err != nil {
		return LineItem{}, err
	}

	id := Identity{ProductID: p.ProductID, Variants: variants}

	s.mu.Lock()
	s.beforeChangeLocked(ctx)
	var added LineItem
	idx := s.indexOf(id)
	if idx >= 0 {
		s.items[idx].Quantity++
		added = s.items[idx]
	} else {
		li, err := NewLineItem(p, variants)
		if err != nil {
			s.mu.Unlock()
			return LineItem{}, err
		}
		s.items = append(s.items, li)
		added = li
	}
	s.persistLocked(ctx)
	listeners := append([]func(LineItem){}, s.onAdd...)
	s.mu.Unlock()

	added.Variants = added.Variants.Clone()
	for _, fn := range listeners {
		fn(added)
	}
	return added, nil
}

// RemoveFromCart は一致する行を丸ごと削除する。一致しなければ何もしない（エラーではない）。
func (s *Store) RemoveFromCart(ctx context.Context, productID string, variants VariantSelection) bool {
	id := Identity{ProductID: productID, Variants: variants}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeChangeLocked(ctx)

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	s.persistLocked(ctx)
	return true
}

// RemoveLines は指定した同一性の行をまとめて消し、保存は1回だけ行う。消した行数を返す。
func (s *Store) RemoveLines(ctx context.Context, ids []Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeChangeLocked(ctx)

	removed := 0
	for _, id := range ids {
		if idx := s.indexOf(id); idx >= 0 {
			s.items = slices.Delete(s.items, idx, idx+1)
			removed++
		}
	}
	if removed > 0 {
		s.persistLocked(ctx)
	}
	return removed
}

// ClearCart は明細を全部消す。
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []LineItem{}
	s.persistLocked(ctx)
}

// Items は追加順のコピーを返す。
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// TotalItems は数量の合計。
func (s *Store) TotalItems() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice は unitPrice * quantity の合計。
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

func (s *Store) indexOf(id Identity) int {
	for i, it := range s.items {
		if id.Matches(it) {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) {
	s.changed = true
	s.persister.Save(ctx, cloneItems(s.items))
}
