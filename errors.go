package feedcache

import (
	"errors"
	"fmt"
)

// ErrLoaderClosed is returned by the blocking helpers once Close was called.
var ErrLoaderClosed = errors.New("feedcache: loader closed")

// DeletionError reports that the store failed to delete the cached feed.
type DeletionError struct{ Err error }

func (e *DeletionError) Error() string {
	return fmt.Sprintf("feedcache: delete cached feed: %v", e.Err)
}
func (e *DeletionError) Unwrap() error { return e.Err }

// InsertionError reports that the store failed to persist a new snapshot.
// The previously cached state is unchanged.
type InsertionError struct{ Err error }

func (e *InsertionError) Error() string { return fmt.Sprintf("feedcache: insert feed: %v", e.Err) }
func (e *InsertionError) Unwrap() error { return e.Err }

// RetrievalError reports an unreadable or corrupt snapshot.
type RetrievalError struct{ Err error }

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("feedcache: retrieve cached feed: %v", e.Err)
}
func (e *RetrievalError) Unwrap() error { return e.Err }
