// Package store defines the persistence contract used by the local feed loader.
//
// A FeedStore owns exactly one slot. Insert replaces whatever the slot holds,
// Delete empties it, Retrieve observes it. Implementations MUST:
//
//   - invoke every completion exactly once;
//   - serialize operations submitted to one instance and execute and complete
//     them in submission order (FIFO), whichever goroutine submitted them;
//   - leave the slot untouched when Delete or Insert fails;
//   - never mutate the slot from Retrieve, even when it reports a failure.
//
// Completions may run on any goroutine. Clients dispatch further if needed.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/unkn0wn-root/feedcache/feed"
)

// ErrClosed is reported to operations submitted after the store was closed.
var ErrClosed = errors.New("store: closed")

// FeedStore is the single-slot persistence capability.
type FeedStore interface {
	// Delete removes the cached feed. Deleting an empty slot succeeds.
	Delete(completion func(error))

	// Insert atomically replaces the slot with feed stamped at timestamp.
	Insert(feed []LocalImage, timestamp time.Time, completion func(error))

	// Retrieve reports the slot content without side effects.
	Retrieve(completion func(Retrieval))
}

// LocalImage is the store-side representation of a feed record.
type LocalImage struct {
	ID          uuid.UUID
	Description string
	Location    string
	URL         string
}

// CachedFeed is the single snapshot held by a store.
type CachedFeed struct {
	Feed      []LocalImage
	Timestamp time.Time
}

// Retrieval is the outcome of Retrieve: Empty, Found or Failure.
type Retrieval struct {
	Cache *CachedFeed
	Err   error
}

func Empty() Retrieval { return Retrieval{} }

func Found(feed []LocalImage, timestamp time.Time) Retrieval {
	return Retrieval{Cache: &CachedFeed{Feed: feed, Timestamp: timestamp}}
}

func Failure(err error) Retrieval { return Retrieval{Err: err} }

func (r Retrieval) Empty() bool  { return r.Err == nil && r.Cache == nil }
func (r Retrieval) Found() bool  { return r.Err == nil && r.Cache != nil }
func (r Retrieval) Failed() bool { return r.Err != nil }

// ToLocal maps domain records to their store representation, keeping order.
func ToLocal(items []feed.Image) []LocalImage {
	out := make([]LocalImage, len(items))
	for i, it := range items {
		out[i] = LocalImage{
			ID:          it.ID,
			Description: it.Description,
			Location:    it.Location,
			URL:         it.URL,
		}
	}
	return out
}

// ToModels maps store records back to domain records, keeping order.
func ToModels(local []LocalImage) []feed.Image {
	out := make([]feed.Image, len(local))
	for i, l := range local {
		out[i] = feed.Image{
			ID:          l.ID,
			Description: l.Description,
			Location:    l.Location,
			URL:         l.URL,
		}
	}
	return out
}
