package cart

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession はセッションIDが空。
var ErrNoSession = errors.New("cart session id is required")

// Session は1訪問者のカート（Store + Panel）。
type Session struct {
	ID    string
	Store *Store
	Panel *Panel
}

// NewSession は復元済みの Store を作り、追加時にパネルを開くよう繋ぐ。
func NewSession(ctx context.Context, id string, persister Persister) *Session {
	store := NewStore(ctx, persister)
	panel := NewPanel(store)
	store.OnAdd(func(LineItem) { panel.Open() })
	return &Session{ID: id, Store: store, Panel: panel}
}

// PersisterFactory はスロットキーごとの Persister を返す。
type PersisterFactory func(key string) Persister

// Registry はセッションID → Session。起動時に1つ作って注入する。
// 復元は成功するまで（またはカートが変更されるまで）アクセスのたびに試す。
type Registry struct {
	newPersister PersisterFactory
	idleTTL      time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

type registryEntry struct {
	once     sync.Once
	session  *Session
	lastSeen time.Time
}

// DI
func NewRegistry(newPersister PersisterFactory, idleTTL time.Duration) *Registry {
	return &Registry{
		newPersister: newPersister,
		idleTTL:      idleTTL,
		now:          time.Now,
		sessions:     map[string]*registryEntry{},
	}
}

// Get はセッションを返す。初回は永続スロットから復元する。
// スロットを読めなかったセッションは空のまま返し、次の Get で読み直す。
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok {
		e = &registryEntry{}
		r.sessions[id] = e
	}
	e.lastSeen = r.now()
	r.mu.Unlock()

	created := false
	e.once.Do(func() {
		e.session = NewSession(ctx, id, r.newPersister(SlotKey(id)))
		created = true
	})
	if !created && !e.session.Store.Hydrated() {
		e.session.Store.Rehydrate(ctx)
	}
	return e.session, nil
}

// Sweep は idleTTL 以上アクセスのないセッションをメモリから外す。
// 永続スロットは残るので、次のアクセスで復元される。
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run は ctx が終わるまで interval ごとに Sweep する。
func (r *Registry) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := r.Sweep()
			if onSweep != nil && n > 0 {
				onSweep(n)
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
