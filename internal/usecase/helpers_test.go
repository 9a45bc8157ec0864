package usecase

import (
	"context"
	"sync"
	"time"

	"lifeline/internal/cart"
	"lifeline/internal/domain/model"
	infraRepo "lifeline/internal/infra/repository"
	repo "lifeline/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	total, _ := args.Get(1).(int64)
	return logs, total, args.Error(2)
}

// =====================
// メモリ上の注文ストア（TransactionManager）
// =====================

type memTx struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]model.Order
	items  map[int64][]model.OrderItem
	audits []model.AuditLog
	failOn string
}

func newMemTx() *memTx {
	return &memTx{orders: map[int64]model.Order{}, items: map[int64][]model.OrderItem{}}
}

func (m *memTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(memTxRepos{m})
}

func (m *memTx) order(ref string) (model.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.Reference == ref {
			return o, true
		}
	}
	return model.Order{}, false
}

type memTxRepos struct{ m *memTx }

func (r memTxRepos) Orders() repo.OrderRepository         { return memOrders{r.m} }
func (r memTxRepos) OrderItems() repo.OrderItemRepository { return memOrderItems{r.m} }
func (r memTxRepos) AuditLogs() repo.AuditLogRepository   { return memAudits{r.m} }

type memOrders struct{ m *memTx }

func (o memOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	v, ok := o.m.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return v, nil
}

func (o memOrders) FindByReference(ctx context.Context, ref string) (model.Order, error) {
	for _, v := range o.m.orders {
		if v.Reference == ref {
			return v, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (o memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	if o.m.failOn == "create" {
		return 0, assertErr
	}
	o.m.nextID++
	order.ID = o.m.nextID
	order.CreatedAt = time.Now()
	o.m.orders[order.ID] = order
	return order.ID, nil
}

func (o memOrders) UpdateStatusFrom(ctx context.Context, id int64, from, to model.OrderStatus, at time.Time) error {
	v, ok := o.m.orders[id]
	if !ok || v.Status != from {
		return repo.ErrNotFound
	}
	v.Status = to
	if to == model.OrderStatusPaid {
		v.PaidAt = &at
	}
	o.m.orders[id] = v
	return nil
}

func (o memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for id := int64(1); id <= o.m.nextID; id++ {
		v, ok := o.m.orders[id]
		if !ok || (f.Status != "" && string(v.Status) != f.Status) {
			continue
		}
		out = append(out, v)
	}
	return out, int64(len(out)), nil
}

type memOrderItems struct{ m *memTx }

func (o memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	o.m.items[orderID] = append(o.m.items[orderID], items...)
	return nil
}

func (o memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return o.m.items[orderID], nil
}

type memAudits struct{ m *memTx }

func (a memAudits) Create(ctx context.Context, log model.AuditLog) error {
	a.m.audits = append(a.m.audits, log)
	return nil
}

func (a memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	return a.m.audits, int64(len(a.m.audits)), nil
}

type testError string

func (e testError) Error() string { return string(e) }

const assertErr = testError("boom")

// =====================
// fixtures
// =====================

func newTestRegistry() (*cart.Registry, *infraRepo.CartSlotMemoryRepository) {
	slots := infraRepo.NewCartSlotMemoryRepository()
	return cart.NewRegistry(func(key string) cart.Persister {
		return cart.NewSlot(slots, key, nil)
	}, time.Hour), slots
}

func teeProduct() model.Product {
	return model.Product{
		ID:       1,
		Slug:     "lifeline-tee",
		Name:     "Lifeline Tee",
		Price:    5000,
		ImageURL: "/img/tee.png",
		VariantAxes: []model.VariantAxis{
			{Name: "Size", Options: []string{"S", "M", "L"}},
			{Name: "Color", Options: []string{"Red", "Blue"}},
		},
		IsActive: true,
	}
}

func mugProduct() model.Product {
	return model.Product{ID: 2, Slug: "mug", Name: "Mug", Price: 1500, IsActive: true}
}

func catalogMock(products ...model.Product) *ProductRepoMock {
	m := new(ProductRepoMock)
	for _, p := range products {
		m.On("FindBySlug", mock.Anything, p.Slug).Return(p, nil).Maybe()
	}
	m.On("FindBySlug", mock.Anything, mock.Anything).Return(model.Product{}, repo.ErrNotFound).Maybe()
	return m
}

func statusOf(err error) int {
	if he, ok := AsHTTPError(err); ok {
		return he.Status
	}
	return 0
}
