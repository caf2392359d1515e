// Package asynchook moves feedcache.Hooks calls off the store's completion
// goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{ExpiredEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	loader, _ := feedcache.New(feedcache.Options{
//	    Store: store,
//	    Hooks: hooks, // or raw if the hooks are cheap enough
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/feedcache"
)

// Hooks forwards events to inner on a bounded worker queue. Events that do
// not fit are dropped and counted; events after Close are dropped as well.
type Hooks struct {
	inner   feedcache.Hooks
	mu      sync.RWMutex
	closed  bool
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ feedcache.Hooks = (*Hooks)(nil)

func New(inner feedcache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = feedcache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close delivers queued events and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) RetrievalFailed(op string, err error) {
	h.try(func() { h.inner.RetrievalFailed(op, err) })
}
func (h *Hooks) CacheExpired(op string, age time.Duration, deleted bool) {
	h.try(func() { h.inner.CacheExpired(op, age, deleted) })
}
func (h *Hooks) CleanupFailed(reason string, err error) {
	h.try(func() { h.inner.CleanupFailed(reason, err) })
}
func (h *Hooks) StaleCompletionDropped(op string) {
	h.try(func() { h.inner.StaleCompletionDropped(op) })
}
