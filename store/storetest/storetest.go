// Package storetest checks a store.FeedStore against the single-slot contract.
package storetest

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/feedcache/store"
)

// Harness is one store under test over a fresh, empty slot.
type Harness struct {
	Store store.FeedStore

	// Corrupt overwrites the slot with unreadable bytes. When nil the
	// failure subtests are skipped.
	Corrupt func(t *testing.T)
}

// Factory builds a Harness. Cleanup is the factory's job (t.Cleanup).
type Factory func(t *testing.T) Harness

const wait = 5 * time.Second

// Run executes the contract suite as subtests.
func Run(t *testing.T, newHarness Factory) {
	t.Helper()

	t.Run("RetrieveOnEmptyDeliversEmpty", func(t *testing.T) {
		h := newHarness(t)
		expectEmpty(t, Retrieve(t, h.Store))
	})

	t.Run("RetrieveOnEmptyTwiceHasNoSideEffects", func(t *testing.T) {
		h := newHarness(t)
		expectEmpty(t, Retrieve(t, h.Store))
		expectEmpty(t, Retrieve(t, h.Store))
	})

	t.Run("RetrieveAfterInsertDeliversFound", func(t *testing.T) {
		h := newHarness(t)
		feed, ts := UniqueFeed(3), time.Now()
		if err := Insert(t, h.Store, feed, ts); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ExpectFound(t, Retrieve(t, h.Store), feed, ts)
	})

	t.Run("RetrieveTwiceAfterInsertHasNoSideEffects", func(t *testing.T) {
		h := newHarness(t)
		feed, ts := UniqueFeed(2), time.Now()
		if err := Insert(t, h.Store, feed, ts); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ExpectFound(t, Retrieve(t, h.Store), feed, ts)
		ExpectFound(t, Retrieve(t, h.Store), feed, ts)
	})

	t.Run("InsertOverridesPrevious", func(t *testing.T) {
		h := newHarness(t)
		if err := Insert(t, h.Store, UniqueFeed(4), time.Now().Add(-time.Hour)); err != nil {
			t.Fatalf("first Insert: %v", err)
		}
		feed, ts := UniqueFeed(1), time.Now()
		if err := Insert(t, h.Store, feed, ts); err != nil {
			t.Fatalf("second Insert: %v", err)
		}
		ExpectFound(t, Retrieve(t, h.Store), feed, ts)
	})

	t.Run("InsertEmptyFeedIsFound", func(t *testing.T) {
		h := newHarness(t)
		ts := time.Now()
		if err := Insert(t, h.Store, nil, ts); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ExpectFound(t, Retrieve(t, h.Store), nil, ts)
	})

	t.Run("DeleteOnEmptySucceedsAndStaysEmpty", func(t *testing.T) {
		h := newHarness(t)
		if err := Delete(t, h.Store); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		expectEmpty(t, Retrieve(t, h.Store))
	})

	t.Run("DeleteEmptiesPopulatedSlot", func(t *testing.T) {
		h := newHarness(t)
		if err := Insert(t, h.Store, UniqueFeed(2), time.Now()); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := Delete(t, h.Store); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		expectEmpty(t, Retrieve(t, h.Store))
	})

	t.Run("SideEffectsRunInSubmissionOrder", func(t *testing.T) {
		h := newHarness(t)
		var (
			mu    sync.Mutex
			order []string
			wg    sync.WaitGroup
		)
		record := func(op string) {
			mu.Lock()
			order = append(order, op)
			mu.Unlock()
			wg.Done()
		}
		wg.Add(3)
		h.Store.Insert(UniqueFeed(1), time.Now(), func(err error) {
			if err != nil {
				t.Errorf("Insert: %v", err)
			}
			record("insert")
		})
		h.Store.Delete(func(err error) {
			if err != nil {
				t.Errorf("Delete: %v", err)
			}
			record("delete")
		})
		var last store.Retrieval
		h.Store.Retrieve(func(r store.Retrieval) {
			last = r
			record("retrieve")
		})
		waitGroup(t, &wg)

		mu.Lock()
		defer mu.Unlock()
		if len(order) != 3 || order[0] != "insert" || order[1] != "delete" || order[2] != "retrieve" {
			t.Fatalf("completion order = %v", order)
		}
		expectEmpty(t, last)
	})

	t.Run("RetrieveOnCorruptDeliversFailure", func(t *testing.T) {
		h := newHarness(t)
		if h.Corrupt == nil {
			t.Skip("store cannot be corrupted from outside")
		}
		h.Corrupt(t)
		if r := Retrieve(t, h.Store); !r.Failed() {
			t.Fatalf("Retrieve on corrupt slot: %+v", r)
		}
	})

	t.Run("RetrieveOnCorruptTwiceHasNoSideEffects", func(t *testing.T) {
		h := newHarness(t)
		if h.Corrupt == nil {
			t.Skip("store cannot be corrupted from outside")
		}
		h.Corrupt(t)
		for i := 0; i < 2; i++ {
			if r := Retrieve(t, h.Store); !r.Failed() {
				t.Fatalf("Retrieve #%d on corrupt slot: %+v", i+1, r)
			}
		}
	})

	t.Run("DeleteClearsCorruptSlot", func(t *testing.T) {
		h := newHarness(t)
		if h.Corrupt == nil {
			t.Skip("store cannot be corrupted from outside")
		}
		h.Corrupt(t)
		if err := Delete(t, h.Store); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		expectEmpty(t, Retrieve(t, h.Store))
	})
}

// ==============================
// Helpers
// ==============================

// UniqueFeed returns n records with fresh ids. Odd records leave the
// optional fields empty.
func UniqueFeed(n int) []store.LocalImage {
	out := make([]store.LocalImage, n)
	for i := range out {
		id := uuid.New()
		out[i] = store.LocalImage{ID: id, URL: "https://example.test/" + id.String()}
		if i%2 == 0 {
			out[i].Description = "description " + id.String()[:8]
			out[i].Location = "location " + id.String()[:8]
		}
	}
	return out
}

func Insert(t *testing.T, s store.FeedStore, feed []store.LocalImage, ts time.Time) error {
	t.Helper()
	ch := make(chan error, 1)
	s.Insert(feed, ts, func(err error) { ch <- err })
	select {
	case err := <-ch:
		return err
	case <-time.After(wait):
		t.Fatal("Insert did not complete")
		return nil
	}
}

func Delete(t *testing.T, s store.FeedStore) error {
	t.Helper()
	ch := make(chan error, 1)
	s.Delete(func(err error) { ch <- err })
	select {
	case err := <-ch:
		return err
	case <-time.After(wait):
		t.Fatal("Delete did not complete")
		return nil
	}
}

func Retrieve(t *testing.T, s store.FeedStore) store.Retrieval {
	t.Helper()
	ch := make(chan store.Retrieval, 1)
	s.Retrieve(func(r store.Retrieval) { ch <- r })
	select {
	case r := <-ch:
		return r
	case <-time.After(wait):
		t.Fatal("Retrieve did not complete")
		return store.Retrieval{}
	}
}

// ExpectFound compares records element-wise and timestamps by instant, so a
// nil and an empty feed are equivalent.
func ExpectFound(t *testing.T, r store.Retrieval, feed []store.LocalImage, ts time.Time) {
	t.Helper()
	if !r.Found() {
		t.Fatalf("want Found, got %+v", r)
	}
	if !r.Cache.Timestamp.Equal(ts) {
		t.Fatalf("timestamp = %v, want %v", r.Cache.Timestamp, ts)
	}
	if len(r.Cache.Feed) != len(feed) {
		t.Fatalf("feed len = %d, want %d", len(r.Cache.Feed), len(feed))
	}
	for i := range feed {
		if r.Cache.Feed[i] != feed[i] {
			t.Fatalf("feed[%d] = %+v, want %+v", i, r.Cache.Feed[i], feed[i])
		}
	}
}

func expectEmpty(t *testing.T, r store.Retrieval) {
	t.Helper()
	if r.Failed() || r.Found() {
		t.Fatalf("want Empty, got %+v", r)
	}
}

func waitGroup(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(wait):
		t.Fatal("completions did not arrive")
	}
}
