package repository

import "context"

// カートの永続スロット（key → JSON文字列）の約束。
// 値は常に明細リスト全体のスナップショット。
type CartSlotRepository interface {
	// 無い場合は ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	// 上書き保存（無ければ作る）
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
