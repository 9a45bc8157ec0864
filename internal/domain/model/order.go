package model

import "time"

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// カート経由か Buy Now か
type OrderSource string

const (
	OrderSourceCart   OrderSource = "CART"
	OrderSourceBuyNow OrderSource = "BUY_NOW"
)

// 決済に渡した注文。Reference は決済側と共有する。
type Order struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference  string      `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	SessionID  string      `gorm:"type:varchar(64);not null;index" json:"-"`
	Email      string      `gorm:"type:varchar(255);not null;index" json:"email"`
	Source     OrderSource `gorm:"type:varchar(20);not null" json:"source"`
	Status     OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice int64       `gorm:"not null" json:"total_price"`
	PaidAt     *time.Time  `json:"paid_at,omitempty"`
	CreatedAt  time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
