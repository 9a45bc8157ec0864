package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lifeline/internal/domain/model"
	repo "lifeline/internal/repository"
)

// nil は空文字
func toAuditJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// GET /admin/audit-logs, GET /admin/products/:id/audit-logs
type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

// DI
func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type AuditLogListInput struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func validatePage(page, limit int) error {
	if page < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return nil
}

func (u *AuditLogUsecase) List(ctx context.Context, in AuditLogListInput) (AuditLogListOutput, error) {
	if err := validatePage(in.Page, in.Limit); err != nil {
		return AuditLogListOutput{}, err
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		if !a.Valid() {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Actions = []model.AuditAction{a}
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		if !rt.Valid() {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &rt
	}
	return u.list(ctx, f, in.Page, in.Limit)
}

// 1商品の作成〜削除の履歴。削除済みの商品でも引ける
func (u *AuditLogUsecase) ProductHistory(ctx context.Context, productID int64, page, limit int) (AuditLogListOutput, error) {
	if productID <= 0 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := validatePage(page, limit); err != nil {
		return AuditLogListOutput{}, err
	}
	rt := model.AuditResourceProduct
	return u.list(ctx, repo.AuditLogFilter{
		Actions:      model.ProductAuditActions,
		ResourceType: &rt,
		ResourceID:   &productID,
	}, page, limit)
}

func (u *AuditLogUsecase) list(ctx context.Context, f repo.AuditLogFilter, page, limit int) (AuditLogListOutput, error) {
	f.Limit = limit
	f.Offset = (page - 1) * limit

	items, total, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if items == nil {
		items = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}
