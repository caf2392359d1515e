package serial

import "sync"

// Outbox is an unbounded FIFO executor with a single worker goroutine.
type Outbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	exited  bool
	done    chan struct{}
}

func NewOutbox() *Outbox {
	o := &Outbox{done: make(chan struct{})}
	o.cond = sync.NewCond(&o.mu)
	go o.run()
	return o
}

// Post enqueues f without blocking. Work posted while the outbox drains after
// Close still runs in order behind what is pending; once the worker has
// exited, f runs on the caller's goroutine.
func (o *Outbox) Post(f func()) {
	o.mu.Lock()
	if o.exited {
		o.mu.Unlock()
		f()
		return
	}
	o.pending = append(o.pending, f)
	o.mu.Unlock()
	o.cond.Signal()
}

// Close lets the worker exit once pending work has drained. It does not wait,
// so posted work may call it; use Done to wait.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cond.Signal()
}

// Done is closed when the worker has exited.
func (o *Outbox) Done() <-chan struct{} { return o.done }

func (o *Outbox) run() {
	defer close(o.done)
	for {
		o.mu.Lock()
		for len(o.pending) == 0 && !o.closed {
			o.cond.Wait()
		}
		if len(o.pending) == 0 {
			o.exited = true
			o.mu.Unlock()
			return
		}
		f := o.pending[0]
		o.pending[0] = nil
		o.pending = o.pending[1:]
		o.mu.Unlock()
		f()
	}
}
