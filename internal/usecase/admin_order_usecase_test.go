package usecase

import (
	"context"
	"net/http"
	"testing"

	"lifeline/internal/domain/model"
	repo "lifeline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, tx *memTx, status model.OrderStatus) int64 {
	t.Helper()
	var id int64
	require.NoError(t, tx.WithinTx(context.Background(), func(r repo.TxRepos) error {
		var err error
		id, err = r.Orders().Create(context.Background(), model.Order{
			Reference:  "LL-seed",
			Email:      "donor@example.com",
			Source:     model.OrderSourceCart,
			Status:     status,
			TotalPrice: 1500,
		})
		if err != nil {
			return err
		}
		return r.OrderItems().CreateBulk(context.Background(), id, []model.OrderItem{
			{ProductID: "mug", ProductNameSnapshot: "Mug", UnitPriceSnapshot: 1500, Quantity: 1},
		})
	}))
	return id
}

func TestAdminOrderUsecase_ListAndGet(t *testing.T) {
	tx := newMemTx()
	id := seedOrder(t, tx, model.OrderStatusPending)
	uc := NewAdminOrderUsecase(tx)
	ctx := context.Background()

	out, err := uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Mug", out.Items[0].Items[0].Name)

	_, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10, Status: "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	_, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 0, Limit: 10})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	got, err := uc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "LL-seed", got.Reference)

	_, err = uc.Get(ctx, 999)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestAdminOrderUsecase_UpdateStatus(t *testing.T) {
	tx := newMemTx()
	id := seedOrder(t, tx, model.OrderStatusPending)
	uc := NewAdminOrderUsecase(tx)
	ctx := context.Background()

	require.NoError(t, uc.UpdateStatus(ctx, 7, id, AdminUpdateOrderStatusInput{Status: "CANCELED"}))
	require.Len(t, tx.audits, 1)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, tx.audits[0].Action)
	assert.Equal(t, int64(7), tx.audits[0].ActorUserID)
	assert.JSONEq(t, `{"status":"PENDING"}`, tx.audits[0].BeforeJSON)

	// 同じ値は何もしない
	require.NoError(t, uc.UpdateStatus(ctx, 7, id, AdminUpdateOrderStatusInput{Status: "CANCELED"}))
	assert.Len(t, tx.audits, 1)

	err := uc.UpdateStatus(ctx, 7, id, AdminUpdateOrderStatusInput{Status: "PAID"})
	assert.Equal(t, http.StatusConflict, statusOf(err))

	assert.Equal(t, http.StatusBadRequest, statusOf(uc.UpdateStatus(ctx, 7, id, AdminUpdateOrderStatusInput{Status: "SHIPPED"})))
	assert.Equal(t, http.StatusUnauthorized, statusOf(uc.UpdateStatus(ctx, 0, id, AdminUpdateOrderStatusInput{Status: "PAID"})))
	assert.Equal(t, http.StatusNotFound, statusOf(uc.UpdateStatus(ctx, 7, 999, AdminUpdateOrderStatusInput{Status: "PAID"})))
}

func TestAuditLogUsecase_List(t *testing.T) {
	audits := new(AuditRepoMock)
	audits.On("List", context.Background(), repo.AuditLogFilter{Limit: 10, Offset: 10}).Return(nil, int64(12), nil).Once()

	uc := NewAuditLogUsecase(audits)
	out, err := uc.List(context.Background(), AuditLogListInput{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, out.Items)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(12), out.Total)

	_, err = uc.List(context.Background(), AuditLogListInput{Page: 1, Limit: 0})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	audits.AssertExpectations(t)
}

func TestAuditLogUsecase_List_RejectsUnknownFilters(t *testing.T) {
	audits := new(AuditRepoMock)
	uc := NewAuditLogUsecase(audits)
	ctx := context.Background()

	_, err := uc.List(ctx, AuditLogListInput{Page: 1, Limit: 10, Action: "DROP_TABLE"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	_, err = uc.List(ctx, AuditLogListInput{Page: 1, Limit: 10, ResourceType: "cart"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	rt := model.AuditResourceOrder
	audits.On("List", ctx, repo.AuditLogFilter{
		Actions:      []model.AuditAction{model.AuditActionUpdateOrderStatus},
		ResourceType: &rt,
		Limit:        10,
	}).Return([]model.AuditLog{{ID: 3}}, int64(1), nil).Once()
	out, err := uc.List(ctx, AuditLogListInput{Page: 1, Limit: 10, Action: "UPDATE_ORDER_STATUS", ResourceType: "order"})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	audits.AssertExpectations(t)
}

func TestAuditLogUsecase_ProductHistory(t *testing.T) {
	audits := new(AuditRepoMock)
	ctx := context.Background()
	audits.On("List", ctx, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.ResourceType != nil && *f.ResourceType == model.AuditResourceProduct &&
			f.ResourceID != nil && *f.ResourceID == 42 &&
			assert.ObjectsAreEqual(model.ProductAuditActions, f.Actions) &&
			f.Limit == 20 && f.Offset == 20
	})).Return([]model.AuditLog{{ID: 9, Action: model.AuditActionDeleteProduct}}, int64(21), nil).Once()

	uc := NewAuditLogUsecase(audits)
	out, err := uc.ProductHistory(ctx, 42, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(21), out.Total)
	assert.Equal(t, model.AuditActionDeleteProduct, out.Items[0].Action)

	_, err = uc.ProductHistory(ctx, 0, 1, 20)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	_, err = uc.ProductHistory(ctx, 42, 1, 101)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	audits.AssertExpectations(t)
}
