package feedcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/feedcache/feed"
	"github.com/unkn0wn-root/feedcache/store"
)

// LocalLoader saves, loads and validates the cached feed through a
// store.FeedStore. It holds no lock of its own: ordering comes from the
// store, which runs operations FIFO.
//
// After Close every method is a no-op and completions still in flight are
// dropped without reaching the caller.
type LocalLoader struct {
	store  store.FeedStore
	now    func() time.Time
	maxAge time.Duration
	log    Logger
	hooks  Hooks

	closed    atomic.Bool
	closedCh  chan struct{}
	closeOnce sync.Once
}

func (l *LocalLoader) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.closedCh)
	})
}

// alive is checked first thing in every store completion.
func (l *LocalLoader) alive(op string) bool {
	if l.closed.Load() {
		l.hooks.StaleCompletionDropped(op)
		l.log.Debug("completion dropped after close", Fields{"op": op})
		return false
	}
	return true
}

// ==============================
// Save
// ==============================

func (l *LocalLoader) Save(items []feed.Image, completion func(error)) {
	if l.closed.Load() {
		return
	}
	l.store.Delete(func(err error) {
		if !l.alive("save") {
			return
		}
		if err != nil {
			l.log.Warn("cache deletion failed; insert skipped", Fields{"err": err})
			completion(&DeletionError{Err: err})
			return
		}
		l.cache(items, completion)
	})
}

func (l *LocalLoader) cache(items []feed.Image, completion func(error)) {
	ts := l.now()
	l.store.Insert(store.ToLocal(items), ts, func(err error) {
		if !l.alive("save") {
			return
		}
		if err != nil {
			l.log.Warn("cache insertion failed", Fields{"err": err, "items": len(items)})
			completion(&InsertionError{Err: err})
			return
		}
		l.log.Debug("feed cached", Fields{"items": len(items), "timestamp": ts})
		completion(nil)
	})
}

// ==============================
// Load
// ==============================

// Load reports the cached feed while it is fresh. Empty and expired caches
// both yield an empty, non-nil slice; an expired snapshot is left in place.
// A corrupt snapshot is reported as *RetrievalError and deleted in the
// background. A closed store is reported the same way but nothing is deleted.
func (l *LocalLoader) Load(completion func([]feed.Image, error)) {
	if l.closed.Load() {
		return
	}
	l.store.Retrieve(func(r store.Retrieval) {
		if !l.alive("load") {
			return
		}
		switch {
		case errors.Is(r.Err, store.ErrClosed):
			completion(nil, &RetrievalError{Err: r.Err})

		case r.Failed():
			l.hooks.RetrievalFailed("load", r.Err)
			l.log.Warn("cached feed unreadable; deleting", Fields{"err": r.Err})
			l.cleanup("corrupt", nil)
			completion(nil, &RetrievalError{Err: r.Err})

		case r.Found():
			now := l.now()
			if IsFresh(r.Cache.Timestamp, now, l.maxAge) {
				completion(store.ToModels(r.Cache.Feed), nil)
				return
			}
			l.hooks.CacheExpired("load", now.Sub(r.Cache.Timestamp), false)
			completion([]feed.Image{}, nil)

		default:
			completion([]feed.Image{}, nil)
		}
	})
}

// ==============================
// Validate
// ==============================

func (l *LocalLoader) ValidateCache() {
	l.validate(func() {})
}

// validate runs the hygiene pass and calls done once it, including any
// cleanup delete, has finished. done is not called after Close.
func (l *LocalLoader) validate(done func()) {
	if l.closed.Load() {
		return
	}
	l.store.Retrieve(func(r store.Retrieval) {
		if !l.alive("validate") {
			return
		}
		switch {
		case errors.Is(r.Err, store.ErrClosed):
			done()

		case r.Failed():
			l.hooks.RetrievalFailed("validate", r.Err)
			l.log.Info("cached feed unreadable; deleting", Fields{"err": r.Err})
			l.cleanup("corrupt", done)

		case r.Found():
			now := l.now()
			if IsFresh(r.Cache.Timestamp, now, l.maxAge) {
				done()
				return
			}
			l.hooks.CacheExpired("validate", now.Sub(r.Cache.Timestamp), true)
			l.log.Info("cached feed expired; deleting", Fields{"timestamp": r.Cache.Timestamp})
			l.cleanup("expired", done)

		default:
			done()
		}
	})
}

// cleanup issues a fire-and-forget delete. Its outcome is only logged.
func (l *LocalLoader) cleanup(reason string, done func()) {
	l.store.Delete(func(err error) {
		if !l.alive("cleanup") {
			return
		}
		if err != nil {
			l.hooks.CleanupFailed(reason, err)
			l.log.Error("cache cleanup failed", Fields{"reason": reason, "err": err})
		}
		if done != nil {
			done()
		}
	})
}

// ==============================
// Blocking helpers
// ==============================

// SaveContext is Save that waits for the outcome or ctx.
func (l *LocalLoader) SaveContext(ctx context.Context, items []feed.Image) error {
	if l.closed.Load() {
		return ErrLoaderClosed
	}
	ch := make(chan error, 1)
	l.Save(items, func(err error) { ch <- err })
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closedCh:
		select {
		case err := <-ch:
			return err
		default:
			return ErrLoaderClosed
		}
	}
}

// LoadContext is Load that waits for the outcome or ctx.
func (l *LocalLoader) LoadContext(ctx context.Context) ([]feed.Image, error) {
	if l.closed.Load() {
		return nil, ErrLoaderClosed
	}
	type result struct {
		items []feed.Image
		err   error
	}
	ch := make(chan result, 1)
	l.Load(func(items []feed.Image, err error) { ch <- result{items, err} })
	select {
	case r := <-ch:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closedCh:
		select {
		case r := <-ch:
			return r.items, r.err
		default:
			return nil, ErrLoaderClosed
		}
	}
}

// ValidateContext runs ValidateCache and waits until it, including any
// cleanup, is done. Store errors are not reported; only ctx and Close are.
func (l *LocalLoader) ValidateContext(ctx context.Context) error {
	if l.closed.Load() {
		return ErrLoaderClosed
	}
	ch := make(chan struct{})
	l.validate(func() { close(ch) })
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closedCh:
		select {
		case <-ch:
			return nil
		default:
			return ErrLoaderClosed
		}
	}
}
