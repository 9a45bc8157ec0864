package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lifeline/internal/repository"

	"go.uber.org/zap"
)

// SlotKeyPrefix は永続スロットのキー。セッションIDを後ろに付ける。
const SlotKeyPrefix = "lifeline_cart:"

func SlotKey(sessionID string) string {
	return SlotKeyPrefix + sessionID
}

// ErrSlotUnavailable はスロットを読めなかった（未保存・壊れたデータとは別）。
var ErrSlotUnavailable = errors.New("cart slot unavailable")

// Persister は明細リスト全体のスナップショットを保存・復元する約束。
// Save は失敗をログに残すだけ。Load は常に使えるリストを返し、
// 読み込み自体に失敗したときだけ ErrSlotUnavailable を一緒に返す。
type Persister interface {
	Save(ctx context.Context, items []LineItem)
	Load(ctx context.Context) ([]LineItem, error)
}

// Slot は CartSlotRepository に JSON で1キー丸ごと保存する同期実装。
type Slot struct {
	repo   repository.CartSlotRepository
	key    string
	logger *zap.Logger
}

// DI
func NewSlot(repo repository.CartSlotRepository, key string, logger *zap.Logger) *Slot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slot{repo: repo, key: key, logger: logger}
}

func (s *Slot) Key() string {
	return s.key
}

// Save は1回のPutでリスト全体を書き込む（部分書き込みはしない）。
// 空のリストはスロットごと消す。Load からは未保存と同じに見える。
func (s *Slot) Save(ctx context.Context, items []LineItem) {
	if err := s.save(ctx, items); err != nil {
		s.logger.Warn("cart slot write failed",
			zap.String("session_key", s.key),
			zap.Int("items", len(items)),
			zap.Error(err),
		)
	}
}

func (s *Slot) save(ctx context.Context, items []LineItem) error {
	if len(items) == 0 {
		return s.repo.Delete(ctx, s.key)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.repo.Put(ctx, s.key, string(raw))
}

// Load は壊れたデータ・未保存なら空のリストで nil。
// 読み込みに失敗したときは空のリストと ErrSlotUnavailable。
func (s *Slot) Load(ctx context.Context) ([]LineItem, error) {
	raw, err := s.repo.Get(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug("cart slot empty", zap.String("session_key", s.key))
		return []LineItem{}, nil
	}
	if err != nil {
		s.logger.Warn("cart slot read failed", zap.String("session_key", s.key), zap.Error(err))
		return []LineItem{}, fmt.Errorf("%w: %w", ErrSlotUnavailable, err)
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("cart slot corrupt, starting empty", zap.String("session_key", s.key), zap.Error(err))
		return []LineItem{}, nil
	}

	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 || (Product{ProductID: it.ProductID, UnitPrice: it.UnitPrice}).Validate() != nil {
			s.logger.Warn("cart slot line dropped",
				zap.String("session_key", s.key),
				zap.String("product_id", it.ProductID),
				zap.Int64("quantity", it.Quantity),
			)
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
