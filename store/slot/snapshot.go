package slot

import (
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/feedcache/store"
)

// Snapshot is the persisted record: the ordered feed and its timestamp.
type Snapshot struct {
	Feed      []Item    `json:"feed" cbor:"feed" msgpack:"feed"`
	Timestamp time.Time `json:"timestamp" cbor:"timestamp" msgpack:"timestamp"`
}

// Item is one persisted feed record.
type Item struct {
	ID          uuid.UUID `json:"id" cbor:"id" msgpack:"id"`
	Description string    `json:"description,omitempty" cbor:"description,omitempty" msgpack:"description,omitempty"`
	Location    string    `json:"location,omitempty" cbor:"location,omitempty" msgpack:"location,omitempty"`
	URL         string    `json:"url" cbor:"url" msgpack:"url"`
}

// newSnapshot normalizes the timestamp so every codec reproduces it exactly:
// no monotonic reading, UTC location, nanoseconds kept.
func newSnapshot(feed []store.LocalImage, ts time.Time) Snapshot {
	items := make([]Item, len(feed))
	for i, f := range feed {
		items[i] = Item{ID: f.ID, Description: f.Description, Location: f.Location, URL: f.URL}
	}
	return Snapshot{Feed: items, Timestamp: ts.Round(0).UTC()}
}

func (s Snapshot) local() ([]store.LocalImage, time.Time) {
	out := make([]store.LocalImage, len(s.Feed))
	for i, it := range s.Feed {
		out[i] = store.LocalImage{ID: it.ID, Description: it.Description, Location: it.Location, URL: it.URL}
	}
	return out, s.Timestamp.UTC()
}
