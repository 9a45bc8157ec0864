package repository

import (
	"context"
	"time"

	"lifeline/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	Email  string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByReference(ctx context.Context, reference string) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	// PENDING のときだけ更新する。更新できなければ ErrNotFound
	UpdateStatusFrom(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus, at time.Time) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
