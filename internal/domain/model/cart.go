package model

import "time"

// カートの永続スロット。1セッション1行。
// Value は明細リスト全体のJSON（差分ではなくスナップショット）。
type CartSlot struct {
	Key       string    `gorm:"primaryKey;type:varchar(255)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
