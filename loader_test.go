package feedcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/feedcache/feed"
	"github.com/unkn0wn-root/feedcache/store"
)

// ==============================
// Spies
// ==============================

type received struct {
	op   string // "delete" | "insert" | "retrieve"
	feed []store.LocalImage
	ts   time.Time
}

// storeSpy records messages and holds completions until the test fires them.
type storeSpy struct {
	mu         sync.Mutex
	messages   []received
	deletions  []func(error)
	insertions []func(error)
	retrievals []func(store.Retrieval)
}

func (s *storeSpy) Delete(completion func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, received{op: "delete"})
	s.deletions = append(s.deletions, completion)
}

func (s *storeSpy) Insert(feed []store.LocalImage, ts time.Time, completion func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, received{op: "insert", feed: feed, ts: ts})
	s.insertions = append(s.insertions, completion)
}

func (s *storeSpy) Retrieve(completion func(store.Retrieval)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, received{op: "retrieve"})
	s.retrievals = append(s.retrievals, completion)
}

func (s *storeSpy) completeDeletion(i int, err error) {
	s.mu.Lock()
	c := s.deletions[i]
	s.mu.Unlock()
	c(err)
}

func (s *storeSpy) completeInsertion(i int, err error) {
	s.mu.Lock()
	c := s.insertions[i]
	s.mu.Unlock()
	c(err)
}

func (s *storeSpy) completeRetrieval(i int, r store.Retrieval) {
	s.mu.Lock()
	c := s.retrievals[i]
	s.mu.Unlock()
	c(r)
}

func (s *storeSpy) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.op
	}
	return out
}

type hooksSpy struct {
	mu      sync.Mutex
	events  []string
	deleted []bool
}

func (h *hooksSpy) add(e string) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *hooksSpy) RetrievalFailed(op string, _ error) { h.add("retrieval_failed:" + op) }
func (h *hooksSpy) CacheExpired(op string, _ time.Duration, deleted bool) {
	h.mu.Lock()
	h.deleted = append(h.deleted, deleted)
	h.mu.Unlock()
	h.add("expired:" + op)
}
func (h *hooksSpy) CleanupFailed(reason string, _ error) { h.add("cleanup_failed:" + reason) }
func (h *hooksSpy) StaleCompletionDropped(op string)     { h.add("dropped:" + op) }

func (h *hooksSpy) list() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

// ==============================
// Helpers
// ==============================

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func makeSUT(t *testing.T) (*LocalLoader, *storeSpy, *hooksSpy) {
	t.Helper()
	spy, hooks := &storeSpy{}, &hooksSpy{}
	l, err := New(Options{
		Store:       spy,
		CurrentDate: func() time.Time { return fixedNow },
		Hooks:       hooks,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, spy, hooks
}

func uniqueImageFeed() ([]feed.Image, []store.LocalImage) {
	models := []feed.Image{
		{ID: uuid.New(), Description: "a description", Location: "a location", URL: "https://a.test/1"},
		{ID: uuid.New(), URL: "https://a.test/2"},
	}
	return models, store.ToLocal(models)
}

func expectOps(t *testing.T, spy *storeSpy, want ...string) {
	t.Helper()
	got := spy.ops()
	if len(got) != len(want) {
		t.Fatalf("store messages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("store messages = %v, want %v", got, want)
		}
	}
}

func expectImages(t *testing.T, got, want []feed.Image) {
	t.Helper()
	if got == nil {
		t.Fatal("got nil feed, want non-nil")
	}
	if len(got) != len(want) {
		t.Fatalf("feed len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("feed[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// ==============================
// Construction
// ==============================

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := New(Options{Store: &storeSpy{}, MaxAge: -time.Second}); err == nil {
		t.Fatal("expected error for negative max age")
	}
}

func TestNew_DoesNotMessageStore(t *testing.T) {
	_, spy, _ := makeSUT(t)
	expectOps(t, spy)
}

// ==============================
// Save
// ==============================

func TestSave_RequestsDeletion(t *testing.T) {
	l, spy, _ := makeSUT(t)
	models, _ := uniqueImageFeed()
	l.Save(models, func(error) {})
	expectOps(t, spy, "delete")
}

func TestSave_DeletionErrorSkipsInsert(t *testing.T) {
	l, spy, _ := makeSUT(t)
	models, _ := uniqueImageFeed()
	boom := errors.New("deletion")

	var got error
	l.Save(models, func(err error) { got = err })
	spy.completeDeletion(0, boom)

	expectOps(t, spy, "delete")
	var de *DeletionError
	if !errors.As(got, &de) || !errors.Is(got, boom) {
		t.Fatalf("Save err = %v, want DeletionError wrapping %v", got, boom)
	}
}

func TestSave_InsertsWithTimestampAfterDeletion(t *testing.T) {
	l, spy, _ := makeSUT(t)
	models, local := uniqueImageFeed()

	l.Save(models, func(error) {})
	spy.completeDeletion(0, nil)

	expectOps(t, spy, "delete", "insert")
	m := spy.messages[1]
	if !m.ts.Equal(fixedNow) {
		t.Fatalf("insert timestamp = %v, want %v", m.ts, fixedNow)
	}
	if len(m.feed) != len(local) || m.feed[0] != local[0] || m.feed[1] != local[1] {
		t.Fatalf("insert feed = %+v, want %+v", m.feed, local)
	}
}

func TestSave_InsertionErrorIsReported(t *testing.T) {
	l, spy, _ := makeSUT(t)
	models, _ := uniqueImageFeed()
	boom := errors.New("insertion")

	var got error
	l.Save(models, func(err error) { got = err })
	spy.completeDeletion(0, nil)
	spy.completeInsertion(0, boom)

	var ie *InsertionError
	if !errors.As(got, &ie) || !errors.Is(got, boom) {
		t.Fatalf("Save err = %v, want InsertionError wrapping %v", got, boom)
	}
}

func TestSave_SucceedsOnSuccessfulInsertion(t *testing.T) {
	l, spy, _ := makeSUT(t)
	models, _ := uniqueImageFeed()

	called := false
	var got error = errors.New("unset")
	l.Save(models, func(err error) { called, got = true, err })
	spy.completeDeletion(0, nil)
	spy.completeInsertion(0, nil)

	if !called || got != nil {
		t.Fatalf("Save completion called=%v err=%v", called, got)
	}
}

func TestSave_DropsDeletionCompletionAfterClose(t *testing.T) {
	l, spy, hooks := makeSUT(t)
	models, _ := uniqueImageFeed()

	called := false
	l.Save(models, func(error) { called = true })
	l.Close()
	spy.completeDeletion(0, nil)

	if called {
		t.Fatal("completion delivered after Close")
	}
	expectOps(t, spy, "delete")
	if ev := hooks.list(); len(ev) != 1 || ev[0] != "dropped:save" {
		t.Fatalf("hooks = %v", ev)
	}
}

func TestSave_DropsInsertionCompletionAfterClose(t *testing.T) {
	l, spy, _ := makeSUT(t)
	models, _ := uniqueImageFeed()

	called := false
	l.Save(models, func(error) { called = true })
	spy.completeDeletion(0, nil)
	l.Close()
	spy.completeInsertion(0, errors.New("insertion"))

	if called {
		t.Fatal("completion delivered after Close")
	}
}

// ==============================
// Load
// ==============================

func TestLoad_RequestsRetrieval(t *testing.T) {
	l, spy, _ := makeSUT(t)
	l.Load(func([]feed.Image, error) {})
	expectOps(t, spy, "retrieve")
}

func TestLoad_FailureReportsErrorAndDeletes(t *testing.T) {
	l, spy, hooks := makeSUT(t)
	boom := errors.New("retrieval")

	var (
		gotItems []feed.Image
		gotErr   error
	)
	l.Load(func(items []feed.Image, err error) { gotItems, gotErr = items, err })
	spy.completeRetrieval(0, store.Failure(boom))

	var re *RetrievalError
	if gotItems != nil || !errors.As(gotErr, &re) || !errors.Is(gotErr, boom) {
		t.Fatalf("Load = %v, %v; want RetrievalError wrapping %v", gotItems, gotErr, boom)
	}
	expectOps(t, spy, "retrieve", "delete")
	if ev := hooks.list(); len(ev) != 1 || ev[0] != "retrieval_failed:load" {
		t.Fatalf("hooks = %v", ev)
	}
}

func TestLoad_ClosedStoreReportsErrorWithoutDeleting(t *testing.T) {
	l, spy, hooks := makeSUT(t)

	var gotErr error
	l.Load(func(_ []feed.Image, err error) { gotErr = err })
	spy.completeRetrieval(0, store.Failure(store.ErrClosed))

	var re *RetrievalError
	if !errors.As(gotErr, &re) || !errors.Is(gotErr, store.ErrClosed) {
		t.Fatalf("Load err = %v, want RetrievalError wrapping ErrClosed", gotErr)
	}
	expectOps(t, spy, "retrieve")
	if ev := hooks.list(); len(ev) != 0 {
		t.Fatalf("hooks = %v, want none", ev)
	}
}

func TestLoad_CleanupFailureIsOnlyHooked(t *testing.T) {
	l, spy, hooks := makeSUT(t)
	calls := 0
	l.Load(func([]feed.Image, error) { calls++ })
	spy.completeRetrieval(0, store.Failure(errors.New("retrieval")))
	spy.completeDeletion(0, errors.New("deletion"))

	if calls != 1 {
		t.Fatalf("completion called %d times, want 1", calls)
	}
	ev := hooks.list()
	if len(ev) != 2 || ev[1] != "cleanup_failed:corrupt" {
		t.Fatalf("hooks = %v", ev)
	}
}

func TestLoad_EmptyCacheDeliversNoImages(t *testing.T) {
	l, spy, _ := makeSUT(t)
	var got []feed.Image
	l.Load(func(items []feed.Image, err error) {
		if err != nil {
			t.Errorf("Load: %v", err)
		}
		got = items
	})
	spy.completeRetrieval(0, store.Empty())

	expectImages(t, got, nil)
	expectOps(t, spy, "retrieve")
}

func TestLoad_FreshCacheDeliversImages(t *testing.T) {
	l, spy, _ := makeSUT(t)
	models, local := uniqueImageFeed()
	var got []feed.Image
	l.Load(func(items []feed.Image, _ error) { got = items })
	spy.completeRetrieval(0, store.Found(local, fixedNow.Add(-MaxCacheAge).Add(time.Second)))

	expectImages(t, got, models)
	expectOps(t, spy, "retrieve")
}

func TestLoad_ExpiredCacheDeliversNoImagesWithoutDeleting(t *testing.T) {
	for name, ts := range map[string]time.Time{
		"exactly max age": fixedNow.Add(-MaxCacheAge),
		"older":           fixedNow.Add(-MaxCacheAge).Add(-time.Second),
	} {
		t.Run(name, func(t *testing.T) {
			l, spy, hooks := makeSUT(t)
			_, local := uniqueImageFeed()
			var got []feed.Image
			l.Load(func(items []feed.Image, _ error) { got = items })
			spy.completeRetrieval(0, store.Found(local, ts))

			expectImages(t, got, nil)
			expectOps(t, spy, "retrieve")
			if ev := hooks.list(); len(ev) != 1 || ev[0] != "expired:load" || hooks.deleted[0] {
				t.Fatalf("hooks = %v deleted=%v", ev, hooks.deleted)
			}
		})
	}
}

func TestLoad_RetrieveTwiceHasNoSideEffects(t *testing.T) {
	l, spy, _ := makeSUT(t)
	_, local := uniqueImageFeed()
	for i := 0; i < 2; i++ {
		l.Load(func([]feed.Image, error) {})
		spy.completeRetrieval(i, store.Found(local, fixedNow))
	}
	expectOps(t, spy, "retrieve", "retrieve")
}

func TestLoad_DropsCompletionAfterClose(t *testing.T) {
	l, spy, _ := makeSUT(t)
	called := false
	l.Load(func([]feed.Image, error) { called = true })
	l.Close()
	spy.completeRetrieval(0, store.Failure(errors.New("retrieval")))

	if called {
		t.Fatal("completion delivered after Close")
	}
	expectOps(t, spy, "retrieve")
}

func TestMethodsAfterCloseDoNotMessageStore(t *testing.T) {
	l, spy, _ := makeSUT(t)
	l.Close()
	l.Close()
	models, _ := uniqueImageFeed()
	l.Save(models, func(error) { t.Error("Save completed") })
	l.Load(func([]feed.Image, error) { t.Error("Load completed") })
	l.ValidateCache()
	expectOps(t, spy)
}

// ==============================
// ValidateCache
// ==============================

func TestValidateCache_DeletesOnRetrievalFailure(t *testing.T) {
	l, spy, hooks := makeSUT(t)
	l.ValidateCache()
	spy.completeRetrieval(0, store.Failure(errors.New("retrieval")))
	expectOps(t, spy, "retrieve", "delete")
	if ev := hooks.list(); len(ev) != 1 || ev[0] != "retrieval_failed:validate" {
		t.Fatalf("hooks = %v", ev)
	}
}

func TestValidateCache_ClosedStoreIsLeftAlone(t *testing.T) {
	l, spy, hooks := makeSUT(t)
	l.ValidateCache()
	spy.completeRetrieval(0, store.Failure(store.ErrClosed))
	expectOps(t, spy, "retrieve")
	if ev := hooks.list(); len(ev) != 0 {
		t.Fatalf("hooks = %v, want none", ev)
	}
}

func TestValidateCache_KeepsEmptyAndFreshCache(t *testing.T) {
	_, local := uniqueImageFeed()
	for name, r := range map[string]store.Retrieval{
		"empty": store.Empty(),
		"fresh": store.Found(local, fixedNow.Add(-MaxCacheAge).Add(time.Second)),
	} {
		t.Run(name, func(t *testing.T) {
			l, spy, _ := makeSUT(t)
			l.ValidateCache()
			spy.completeRetrieval(0, r)
			expectOps(t, spy, "retrieve")
		})
	}
}

func TestValidateCache_DeletesExpiredCache(t *testing.T) {
	_, local := uniqueImageFeed()
	for name, ts := range map[string]time.Time{
		"exactly max age": fixedNow.Add(-MaxCacheAge),
		"older":           fixedNow.Add(-MaxCacheAge).Add(-time.Second),
	} {
		t.Run(name, func(t *testing.T) {
			l, spy, hooks := makeSUT(t)
			l.ValidateCache()
			spy.completeRetrieval(0, store.Found(local, ts))
			expectOps(t, spy, "retrieve", "delete")
			if len(hooks.deleted) != 1 || !hooks.deleted[0] {
				t.Fatalf("CacheExpired deleted = %v, want [true]", hooks.deleted)
			}
		})
	}
}

func TestValidateCache_CleanupFailureIsHooked(t *testing.T) {
	_, local := uniqueImageFeed()
	l, spy, hooks := makeSUT(t)
	l.ValidateCache()
	spy.completeRetrieval(0, store.Found(local, fixedNow.Add(-2*MaxCacheAge)))
	spy.completeDeletion(0, errors.New("deletion"))
	ev := hooks.list()
	if len(ev) != 2 || ev[1] != "cleanup_failed:expired" {
		t.Fatalf("hooks = %v", ev)
	}
}

func TestValidateCache_NoDeleteAfterClose(t *testing.T) {
	l, spy, _ := makeSUT(t)
	l.ValidateCache()
	l.Close()
	spy.completeRetrieval(0, store.Failure(errors.New("retrieval")))
	expectOps(t, spy, "retrieve")
}

func TestMaxAgeOption(t *testing.T) {
	spy := &storeSpy{}
	l, err := New(Options{Store: spy, CurrentDate: func() time.Time { return fixedNow }, MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, local := uniqueImageFeed()
	var got []feed.Image
	l.Load(func(items []feed.Image, _ error) { got = items })
	spy.completeRetrieval(0, store.Found(local, fixedNow.Add(-time.Hour)))
	expectImages(t, got, nil)
}

// ==============================
// Blocking helpers
// ==============================

// memStore completes every operation inline.
type memStore struct {
	mu     sync.Mutex
	cache  *store.CachedFeed
	delErr error
}

func (m *memStore) Delete(c func(error)) {
	m.mu.Lock()
	err := m.delErr
	if err == nil {
		m.cache = nil
	}
	m.mu.Unlock()
	c(err)
}

func (m *memStore) Insert(f []store.LocalImage, ts time.Time, c func(error)) {
	m.mu.Lock()
	m.cache = &store.CachedFeed{Feed: f, Timestamp: ts}
	m.mu.Unlock()
	c(nil)
}

func (m *memStore) Retrieve(c func(store.Retrieval)) {
	m.mu.Lock()
	cf := m.cache
	m.mu.Unlock()
	if cf == nil {
		c(store.Empty())
		return
	}
	c(store.Found(cf.Feed, cf.Timestamp))
}

func TestContextHelpers_RoundTrip(t *testing.T) {
	now := fixedNow
	ms := &memStore{}
	l, err := New(Options{Store: ms, CurrentDate: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	models, _ := uniqueImageFeed()

	if err := l.SaveContext(ctx, models); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	got, err := l.LoadContext(ctx)
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	expectImages(t, got, models)

	now = now.Add(MaxCacheAge)
	if err := l.ValidateContext(ctx); err != nil {
		t.Fatalf("ValidateContext: %v", err)
	}
	if ms.cache != nil {
		t.Fatal("expired cache not deleted by ValidateContext")
	}
}

func TestContextHelpers_SaveReportsDeletionError(t *testing.T) {
	boom := errors.New("deletion")
	l, err := New(Options{Store: &memStore{delErr: boom}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.SaveContext(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("SaveContext = %v, want %v", err, boom)
	}
}

func TestContextHelpers_CancelAndClose(t *testing.T) {
	l, _, _ := makeSUT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.LoadContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("LoadContext = %v, want context.Canceled", err)
	}

	done := make(chan error, 1)
	go func() { done <- l.SaveContext(context.Background(), nil) }()
	time.Sleep(10 * time.Millisecond)
	l.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrLoaderClosed) {
			t.Fatalf("SaveContext = %v, want ErrLoaderClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("SaveContext did not return after Close")
	}

	if err := l.ValidateContext(context.Background()); !errors.Is(err, ErrLoaderClosed) {
		t.Fatalf("ValidateContext after Close = %v", err)
	}
}
