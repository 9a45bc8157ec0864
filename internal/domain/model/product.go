package model

import (
	"time"

	"gorm.io/gorm"
)

// バリエーションの軸（Size: S/M/L など）
type VariantAxis struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// ショップの商品。カートの productId は Slug。
type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string         `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	ImageURL    string         `gorm:"type:varchar(1024)" json:"image_url"`
	VariantAxes []VariantAxis  `gorm:"serializer:json;type:jsonb" json:"variant_axes"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
