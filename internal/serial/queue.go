// Package serial provides single-consumer FIFO executors.
//
// Queue is bounded: Submit blocks while the buffer is full. Outbox is
// unbounded and never blocks its producer, which makes it safe to feed from
// a Queue worker whose consumers may submit back into that Queue.
package serial

import "sync"

const defaultQueueLen = 256

// Queue runs submitted closures one at a time, in submission order, on a
// single worker goroutine.
type Queue struct {
	mu     sync.RWMutex
	closed bool
	q      chan func()
	done   chan struct{}
	once   sync.Once
}

func NewQueue(qlen int) *Queue {
	if qlen <= 0 {
		qlen = defaultQueueLen
	}
	q := &Queue{q: make(chan func(), qlen), done: make(chan struct{})}
	go func() {
		defer close(q.done)
		for f := range q.q {
			f()
		}
	}()
	return q
}

// Submit enqueues f. It reports false when the queue is closed, in which
// case f is never run.
func (q *Queue) Submit(f func()) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	q.q <- f
	return true
}

// Close stops accepting work and waits until everything already submitted
// has run.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.q)
		q.mu.Unlock()
	})
	<-q.done
}
