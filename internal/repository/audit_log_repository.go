package repository

import (
	"context"
	"time"

	"lifeline/internal/domain/model"
)

// 監査ログの絞り込み。nil / 空は条件なし
type AuditLogFilter struct {
	ActorUserID *int64
	// どれかに一致（商品の履歴なら CREATE/UPDATE/DELETE_PRODUCT）
	Actions      []model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 条件に合う全件数と、新しい順の1ページを返す
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}
