// Package sloghooks reports feedcache.Hooks events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/feedcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	ExpiredEvery uint64
	DroppedEvery uint64
	// Store labels every record, e.g. "file:/var/cache/feed".
	Store string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	expiredCtr atomic.Uint64
	droppedCtr atomic.Uint64
}

var _ feedcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	if l != nil && opts.Store != "" {
		l = l.With("store", opts.Store)
	}
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RetrievalFailed(op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("feedcache.retrieval_failed",
		"op", op,
		"err", err)
}

func (h *Hooks) CacheExpired(op string, age time.Duration, deleted bool) {
	if h.l == nil || !sample(h.opts.ExpiredEvery, &h.expiredCtr) {
		return
	}
	h.l.Info("feedcache.cache_expired",
		"op", op,
		"age", age.Round(time.Second).String(),
		"deleted", deleted)
}

func (h *Hooks) CleanupFailed(reason string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("feedcache.cleanup_failed",
		"reason", reason,
		"err", err)
}

func (h *Hooks) StaleCompletionDropped(op string) {
	if h.l == nil || !sample(h.opts.DroppedEvery, &h.droppedCtr) {
		return
	}
	h.l.Debug("feedcache.stale_completion_dropped",
		"op", op)
}
