// Package feedcache caches a remotely fetched feed in a single local slot and
// serves it back only while it is fresh.
//
// Components:
//   - store.FeedStore: single-slot persistence contract (Delete, Insert,
//     Retrieve). Operations are asynchronous, serialized and FIFO.
//   - slot.Store: the reference FeedStore. A private serial worker runs
//     operations over a provider.Provider (file, SQLite, Redis, BigCache,
//     Ristretto) using a codec.Codec (JSON, CBOR, Msgpack, protobuf).
//   - LocalLoader: Save / Load / ValidateCache on top of any FeedStore.
//
// Freshness: a snapshot is fresh while now-timestamp < MaxCacheAge (7 days).
// Load never deletes an expired snapshot, it just reports an empty feed;
// ValidateCache is the pass that removes expired or unreadable snapshots.
//
// Usage:
//
//	p, _ := file.New(file.Config{Path: "/var/cache/app/feed.store"})
//	st := slot.New(p)
//	defer st.Close(ctx)
//
//	loader, _ := feedcache.New(feedcache.Options{Store: st})
//	defer loader.Close()
//
//	loader.Save(items, func(err error) { ... })
//	loader.Load(func(items []feed.Image, err error) { ... })
//	loader.ValidateCache()
package feedcache
