package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AsyncWriter は Slot への書き込みをバックグラウンドで行う。
// 同じキーの未書き込みスナップショットは最新のもので上書きする（last-writer-wins）。
type AsyncWriter struct {
	logger *zap.Logger

	mu       sync.Mutex
	pending  map[string]pendingWrite
	inflight map[string]pendingWrite
	closed   bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type pendingWrite struct {
	slot  *Slot
	items []LineItem
}

func NewAsyncWriter(logger *zap.Logger) *AsyncWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &AsyncWriter{
		logger:  logger,
		pending: map[string]pendingWrite{},
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Persister は slot を非同期書き込みでラップする。Load は同期のまま。
func (w *AsyncWriter) Persister(slot *Slot) Persister {
	return &asyncSlot{w: w, slot: slot}
}

func (w *AsyncWriter) enqueue(ctx context.Context, slot *Slot, items []LineItem) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		// 停止後は残りの書き込みが終わるのを待ってから同期で書く
		<-w.done
		slot.Save(ctx, items)
		return
	}
	w.pending[slot.Key()] = pendingWrite{slot: slot, items: items}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *AsyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-w.stop:
			w.flush()
			return
		}
	}
}

func (w *AsyncWriter) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = map[string]pendingWrite{}
	w.inflight = batch
	w.mu.Unlock()

	for _, p := range batch {
		// リクエストのcontextはもう終わっているので切り離す
		p.slot.Save(context.Background(), p.items)
	}

	w.mu.Lock()
	w.inflight = nil
	w.mu.Unlock()
}

// latest はまだスロットに届いていない最新のスナップショット。
func (w *AsyncWriter) latest(key string) ([]LineItem, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[key]; ok {
		return cloneItems(p.items), true
	}
	if p, ok := w.inflight[key]; ok {
		return cloneItems(p.items), true
	}
	return nil, false
}

// Close は残りを書き込んでから止める。ctxが先に切れたらその時点で戻る。
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
	})

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("cart async writer close timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

type asyncSlot struct {
	w    *AsyncWriter
	slot *Slot
}

func (a *asyncSlot) Save(ctx context.Context, items []LineItem) {
	a.w.enqueue(ctx, a.slot, cloneItems(items))
}

// 書き込み待ちがあればスロットより新しいのでそちらを返す
func (a *asyncSlot) Load(ctx context.Context) ([]LineItem, error) {
	if items, ok := a.w.latest(a.slot.Key()); ok {
		return items, nil
	}
	return a.slot.Load(ctx)
}
