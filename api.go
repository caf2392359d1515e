package feedcache

import (
	"errors"
	"time"

	"github.com/unkn0wn-root/feedcache/feed"
	"github.com/unkn0wn-root/feedcache/store"
)

// FeedCache is the high-level cache API over a single-slot store.
// All callbacks may run on any goroutine.
type FeedCache interface {
	feed.Loader

	// Save replaces the cached feed: delete, then insert stamped with the
	// current date. Insert never runs after a failed delete.
	Save(items []feed.Image, completion func(error))

	// ValidateCache deletes an unreadable or expired snapshot. Best effort;
	// nothing is reported.
	ValidateCache()

	// Close stops delivering completions. Pending store callbacks are dropped.
	Close()
}

// Options configure a LocalLoader. Only Store is required.
type Options struct {
	// Required
	Store store.FeedStore

	CurrentDate func() time.Time // nil => time.Now
	MaxAge      time.Duration    // 0 => MaxCacheAge
	Logger      Logger           // nil => NopLogger
	Hooks       Hooks            // nil => NopHooks
}

func New(opts Options) (*LocalLoader, error) {
	if opts.Store == nil {
		return nil, errors.New("feedcache: store is required")
	}
	if opts.MaxAge < 0 {
		return nil, errors.New("feedcache: max age must not be negative")
	}
	l := &LocalLoader{
		store:    opts.Store,
		now:      opts.CurrentDate,
		closedCh: make(chan struct{}),
	}
	if l.now == nil {
		l.now = time.Now
	}
	l.maxAge = coalesce[time.Duration](opts.MaxAge, MaxCacheAge)
	l.log = coalesce[Logger](opts.Logger, NopLogger{})
	l.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return l, nil
}

var _ FeedCache = (*LocalLoader)(nil)
