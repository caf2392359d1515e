package feedcache

import "time"

// MaxCacheAge is how long a cached feed stays fresh.
const MaxCacheAge = 7 * 24 * time.Hour

// IsFresh reports whether a snapshot taken at timestamp is still valid at now.
// A snapshot exactly maxAge old is stale; timestamps in the future are fresh.
func IsFresh(timestamp, now time.Time, maxAge time.Duration) bool {
	return timestamp.After(now.Add(-maxAge))
}
