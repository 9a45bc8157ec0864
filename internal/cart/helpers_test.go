package cart

import (
	"context"
	"errors"
	"sync"

	"lifeline/internal/repository"
)

// テスト用のスロット。putErr / getErr をセットすると失敗する。終わったctxでは読めない。
type fakeSlotRepo struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	putErr error
	getErr error
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{values: map[string]string{}}
}

func (f *fakeSlotRepo) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeSlotRepo) Put(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.putErr != nil {
		return f.putErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeSlotRepo) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	delete(f.values, key)
	return nil
}

func (f *fakeSlotRepo) raw(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

// Put と Delete の回数
func (f *fakeSlotRepo) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

var errDiskFull = errors.New("quota exceeded")

func newTestStore(t interface{ Helper() }, repo *fakeSlotRepo) *Store {
	t.Helper()
	return NewStore(context.Background(), NewSlot(repo, SlotKey("s1"), nil))
}

func shirt() Product {
	return Product{ProductID: "shirt-1", DisplayName: "Lifeline Tee", UnitPrice: 5000, ImageRef: "/img/tee.png"}
}

func mug() Product {
	return Product{ProductID: "mug-1", DisplayName: "Mug", UnitPrice: 1500}
}
