package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit discard the event instead of waiting when the
	// buffer is full.
	DropIfFull bool
}

// Dispatcher relays session events to a Sink from one goroutine, in emit
// order. All methods are safe on a nil *Dispatcher, which is what
// NewDispatcher returns when auditing is disabled.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu is held for reading while an event is handed over and for writing
	// while the queue is closed, so no send races the close.
	mu     sync.RWMutex
	queue  chan Event
	stop   chan struct{}
	closed atomic.Bool
	once   sync.Once
	wg     sync.WaitGroup

	dropped atomic.Uint64
}

// NewDispatcher starts a dispatcher for sink, or returns nil when cfg is
// disabled. A nil sink discards events.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. With DropIfFull it never waits; otherwise it waits for
// buffer space until ctx ends or the dispatcher closes. Events that were
// turned away for any of those reasons count toward Dropped. Emit after
// Close is ignored and not counted.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
		d.dropped.Add(1)
	}
}

// Close releases blocked emitters, delivers everything already queued and
// waits for the sink to finish. The Manager calls it while holding its
// operation lock, so no session operation emits concurrently.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)

		d.mu.Lock()
		close(d.queue)
		d.mu.Unlock()

		d.wg.Wait()
	})
}

// Dropped reports how many events never reached the sink. The Manager
// exposes it as AuditDropped and the exporters as
// attend_audit_dropped_total.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
