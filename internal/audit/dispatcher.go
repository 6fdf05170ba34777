package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled bool
	// BufferSize is the queue length of each lane.
	BufferSize int
	DropIfFull bool
	// Lanes is the number of delivery goroutines. Events of one browser context always
	// share a lane, so they reach the sink in the order they were emitted.
	Lanes int
}

type lane struct {
	ch      chan Event
	dropped atomic.Uint64
}

// Dispatcher asynchronously forwards audit events to a sink, one lane per group of
// browser contexts.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	lanes     []*lane
	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
	now       func() time.Time
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Lanes <= 0 {
		cfg.Lanes = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		lanes: make([]*lane, cfg.Lanes),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	for i := range d.lanes {
		l := &lane{ch: make(chan Event, cfg.BufferSize)}
		d.lanes[i] = l
		d.wg.Add(1)
		go d.deliver(l)
	}
	return d
}

func (d *Dispatcher) deliver(l *lane) {
	defer d.wg.Done()

	for {
		select {
		case event := <-l.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			for {
				select {
				case event := <-l.ch:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// laneFor picks the lane of a browser context. Events without a context id share
// lane zero.
func (d *Dispatcher) laneFor(contextID string) *lane {
	if contextID == "" || len(d.lanes) == 1 {
		return d.lanes[0]
	}
	return d.lanes[xxhash.Sum64String(contextID)%uint64(len(d.lanes))]
}

// Emit queues event on its context's lane, stamping the time when unset. With
// DropIfFull a full lane drops the event; otherwise Emit waits for room or ctx.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}

	l := d.laneFor(event.ContextID)
	if d.cfg.DropIfFull {
		select {
		case l.ch <- event:
		case <-d.done:
		default:
			l.dropped.Add(1)
		}
		return
	}

	select {
	case l.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops accepting events and waits until every lane has drained.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped sums the events dropped on all lanes.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	var n uint64
	for _, l := range d.lanes {
		n += l.dropped.Load()
	}
	return n
}
