// Package provider defines the byte medium behind a single-slot store.
//
// A Provider owns exactly one addressable location (a file, a row, a key).
// Implementations MUST be byte-for-byte transparent: Get returns exactly the
// bytes passed to the last successful Set. Set MUST replace atomically: after
// a failed Set, Get still returns the previous bytes (or a miss). Del of an
// absent value succeeds; a failed Del leaves the value in place.
//
// The slot store calls a Provider from one goroutine at a time, so
// implementations need not serialize calls themselves, but must tolerate
// being called from different goroutines over their lifetime.
package provider

import (
	"context"
	"errors"
)

// ErrRejected is returned by Set when an in-memory backend refused the write
// (admission policy, size limit). The previous value is untouched.
var ErrRejected = errors.New("provider: write rejected")

type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) when the slot is empty.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context) ([]byte, bool, error)

	// Set atomically replaces the slot with value.
	Set(ctx context.Context, value []byte) error

	// Del empties the slot.
	Del(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}
