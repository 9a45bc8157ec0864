package repository

import (
	"context"
	"errors"
	"time"

	"lifeline/internal/domain/model"
	repo "lifeline/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartSlotGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartSlotGormRepository(db *gorm.DB) *CartSlotGormRepository {
	return &CartSlotGormRepository{db: db}
}

var _ repo.CartSlotRepository = (*CartSlotGormRepository)(nil)

// keyのスナップショットを取得
func (r *CartSlotGormRepository) Get(ctx context.Context, key string) (string, error) {
	var slot model.CartSlot

	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&slot).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return slot.Value, nil
}

// 1文でupsert（リスト全体を置き換える）
func (r *CartSlotGormRepository) Put(ctx context.Context, key string, value string) error {
	now := time.Now()
	slot := model.CartSlot{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&slot).Error
}

// スロットを削除（無くてもエラーにしない）
func (r *CartSlotGormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&model.CartSlot{}).Error
}
