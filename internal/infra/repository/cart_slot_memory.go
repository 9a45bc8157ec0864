package repository

import (
	"context"
	"sync"

	repo "lifeline/internal/repository"
)

// STORAGE_DRIVER=memory 用。プロセスが落ちたら消える。
type CartSlotMemoryRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewCartSlotMemoryRepository() *CartSlotMemoryRepository {
	return &CartSlotMemoryRepository{values: map[string]string{}}
}

var _ repo.CartSlotRepository = (*CartSlotMemoryRepository)(nil)

func (r *CartSlotMemoryRepository) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", repo.ErrNotFound
	}
	return v, nil
}

func (r *CartSlotMemoryRepository) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.values[key] = value
	r.mu.Unlock()
	return nil
}

func (r *CartSlotMemoryRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.values, key)
	r.mu.Unlock()
	return nil
}
