package feedcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking: the loader calls them from
// store completions. Wrap slow hooks with hooks/async.
type Hooks interface {
	// A retrieval reported a corrupt or unreadable snapshot.
	// op ∈ {"load", "validate"}
	RetrievalFailed(op string, err error)

	// A snapshot older than the freshness window was found.
	// age is now - timestamp; deleted tells whether a cleanup was issued.
	CacheExpired(op string, age time.Duration, deleted bool)

	// A fire-and-forget delete failed.
	// reason ∈ {"corrupt", "expired"}
	CleanupFailed(reason string, err error)

	// A store completion arrived after Close and was dropped.
	StaleCompletionDropped(op string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RetrievalFailed(string, error)            {}
func (NopHooks) CacheExpired(string, time.Duration, bool) {}
func (NopHooks) CleanupFailed(string, error)              {}
func (NopHooks) StaleCompletionDropped(string)            {}
