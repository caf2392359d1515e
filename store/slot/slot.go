// Package slot is the durable single-slot FeedStore.
//
// Every operation runs on one worker goroutine in submission order.
// Completions are delivered on a second goroutine in the same order, so a
// completion may submit further operations without blocking the worker.
//
// At rest the provider holds either nothing or one envelope:
//
//	magic "FEED" | version | codec tag | xxhash64(payload) | len | payload
//
// The codec tag selects the decoder on read, so a store configured with one
// codec still reads snapshots written with another registered codec.
package slot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/feedcache"
	"github.com/unkn0wn-root/feedcache/codec"
	"github.com/unkn0wn-root/feedcache/internal/serial"
	"github.com/unkn0wn-root/feedcache/internal/wire"
	"github.com/unkn0wn-root/feedcache/provider"
	"github.com/unkn0wn-root/feedcache/store"
)

// Codec tags written into the envelope.
const (
	TagJSON    byte = 1
	TagCBOR    byte = 2
	TagMsgpack byte = 3
	TagProto   byte = 4
)

// DecodeError reports bytes that could not be turned back into a snapshot.
// Stage is "envelope" when framing or checksum failed and "codec" when the
// payload itself did not decode.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("slot: decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Store struct {
	p        provider.Provider
	ctx      context.Context
	tag      byte
	codecs   map[byte]codec.Codec[Snapshot]
	maxSize  int
	queueLen int
	log      feedcache.Logger

	q         *serial.Queue
	out       *serial.Outbox
	closeOnce sync.Once
	closeErr  error
}

var _ store.FeedStore = (*Store)(nil)

type Option func(*Store)

// WithCodec registers c under tag and makes it the codec used for writes.
// Tag 0 is reserved and ignored.
func WithCodec(c codec.Codec[Snapshot], tag byte) Option {
	return func(s *Store) {
		if c == nil || tag == 0 {
			return
		}
		s.codecs[tag] = c
		s.tag = tag
	}
}

func WithJSON() Option    { return WithCodec(codec.JSON[Snapshot]{}, TagJSON) }
func WithCBOR() Option    { return WithCodec(codec.MustCBOR[Snapshot](true), TagCBOR) }
func WithMsgpack() Option { return WithCodec(codec.Msgpack[Snapshot]{}, TagMsgpack) }
func WithProto() Option   { return WithCodec(Proto{}, TagProto) }

// WithQueueSize bounds the number of operations waiting for the worker.
func WithQueueSize(n int) Option { return func(s *Store) { s.queueLen = n } }

func WithLogger(l feedcache.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxSize caps the encoded payload in both directions.
func WithMaxSize(n int) Option { return func(s *Store) { s.maxSize = n } }

// WithContext sets the context passed to provider calls. Operations are
// not individually cancellable.
func WithContext(ctx context.Context) Option {
	return func(s *Store) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// New starts the store's workers. JSON is the default write codec; all
// built-in codecs are registered for reads.
func New(p provider.Provider, opts ...Option) *Store {
	if p == nil {
		panic("slot: nil provider")
	}
	s := &Store{
		p:   p,
		ctx: context.Background(),
		tag: TagJSON,
		codecs: map[byte]codec.Codec[Snapshot]{
			TagJSON:    codec.JSON[Snapshot]{},
			TagCBOR:    codec.MustCBOR[Snapshot](true),
			TagMsgpack: codec.Msgpack[Snapshot]{},
			TagProto:   Proto{},
		},
		log: feedcache.NopLogger{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.maxSize > 0 {
		for tag, c := range s.codecs {
			s.codecs[tag] = codec.LimitCodec[Snapshot]{Inner: c, MaxSize: s.maxSize}
		}
	}
	s.q = serial.NewQueue(s.queueLen)
	s.out = serial.NewOutbox()
	return s
}

// submit runs op on the worker and posts the completion it returns.
// When the store is closed, rejected is posted instead.
func (s *Store) submit(op func() func(), rejected func()) {
	if !s.q.Submit(func() { s.out.Post(op()) }) {
		s.out.Post(rejected)
	}
}

func (s *Store) Delete(completion func(error)) {
	s.submit(func() func() {
		err := s.p.Del(s.ctx)
		if err != nil {
			err = fmt.Errorf("slot: delete: %w", err)
			s.log.Warn("slot delete failed", feedcache.Fields{"err": err})
		} else {
			s.log.Debug("slot deleted", nil)
		}
		return func() { completion(err) }
	}, func() { completion(store.ErrClosed) })
}

// Insert copies feed before returning; later changes to the caller's slice
// do not reach the snapshot.
func (s *Store) Insert(feed []store.LocalImage, ts time.Time, completion func(error)) {
	snap := newSnapshot(feed, ts)
	s.submit(func() func() {
		err := s.write(snap)
		if err != nil {
			s.log.Warn("slot insert failed", feedcache.Fields{"err": err, "items": len(snap.Feed)})
		}
		return func() { completion(err) }
	}, func() { completion(store.ErrClosed) })
}

func (s *Store) write(snap Snapshot) error {
	payload, err := s.codecs[s.tag].Encode(snap)
	if err != nil {
		return fmt.Errorf("slot: encode snapshot: %w", err)
	}
	b := wire.Encode(s.tag, payload)
	if err := s.p.Set(s.ctx, b); err != nil {
		return fmt.Errorf("slot: write snapshot: %w", err)
	}
	s.log.Debug("slot written", feedcache.Fields{"items": len(snap.Feed), "bytes": len(b), "codec": s.tag})
	return nil
}

func (s *Store) Retrieve(completion func(store.Retrieval)) {
	s.submit(func() func() {
		r := s.read()
		if r.Failed() {
			s.log.Warn("slot retrieve failed", feedcache.Fields{"err": r.Err})
		}
		return func() { completion(r) }
	}, func() { completion(store.Failure(store.ErrClosed)) })
}

func (s *Store) read() store.Retrieval {
	b, ok, err := s.p.Get(s.ctx)
	if err != nil {
		return store.Failure(fmt.Errorf("slot: read: %w", err))
	}
	if !ok {
		return store.Empty()
	}
	tag, payload, err := wire.Decode(b)
	if err != nil {
		return store.Failure(&DecodeError{Stage: "envelope", Err: err})
	}
	c, ok := s.codecs[tag]
	if !ok {
		return store.Failure(&DecodeError{Stage: "codec", Err: fmt.Errorf("unknown codec tag %d", tag)})
	}
	snap, err := c.Decode(payload)
	if err != nil {
		return store.Failure(&DecodeError{Stage: "codec", Err: err})
	}
	feed, ts := snap.local()
	return store.Found(feed, ts)
}

// Close stops accepting operations, waits for queued operations to run, then
// closes the provider. Completions of drained operations are still delivered
// in order afterwards; Close does not wait for them, so a completion may call
// it. Use Drained to wait for delivery. Later operations complete with
// store.ErrClosed.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.q.Close()
		s.out.Close()
		s.closeErr = s.p.Close(ctx)
	})
	return s.closeErr
}

// Drained is closed once Close has been called and every completion queued
// before it has been delivered.
func (s *Store) Drained() <-chan struct{} { return s.out.Done() }
