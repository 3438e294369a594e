package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"advisory-tracker/internal/metrics"

	"go.uber.org/zap"
)

const deliveryTimeout = 5 * time.Second

// Dispatcher queues events in a bounded buffer and delivers them to a sink from worker goroutines.
// Emit never blocks; a full buffer drops the event and counts it.
type Dispatcher struct {
	log     *zap.SugaredLogger
	sink    Sink
	metrics *metrics.CoreMetrics
	events  chan Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	dropped   atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher starts workers delivering to sink.
func NewDispatcher(log *zap.SugaredLogger, sink Sink, bufferSize, workers int, m *metrics.CoreMetrics) *Dispatcher {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		log:     log.Named("notify"),
		sink:    sink,
		metrics: m,
		events:  make(chan Event, bufferSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Emit implements Sink. It only reports success; delivery failures are logged by the workers.
func (d *Dispatcher) Emit(_ context.Context, e Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(e, "dispatcher closed")
		return nil
	}
	select {
	case d.events <- e:
		d.metrics.SetNotificationQueueDepth(len(d.events))
	default:
		d.drop(e, "buffer full")
	}
	return nil
}

// Run blocks until ctx ends, then drains the buffer.
func (d *Dispatcher) Run(ctx context.Context) error {
	<-ctx.Done()
	d.Close()
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Dropped returns how many events were discarded.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Delivered returns how many events the sink accepted.
func (d *Dispatcher) Delivered() uint64 { return d.delivered.Load() }

// Failed returns how many events the sink rejected.
func (d *Dispatcher) Failed() uint64 { return d.failed.Load() }

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for e := range d.events {
		d.metrics.SetNotificationQueueDepth(len(d.events))
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := d.sink.Emit(ctx, e); err != nil {
		d.failed.Add(1)
		d.metrics.IncNotificationError()
		d.log.Warnw("notification delivery failed", "error", err, "event_id", e.ID, "kind", e.Kind)
		return
	}
	d.delivered.Add(1)
	d.metrics.IncNotification(string(e.Kind))
}

func (d *Dispatcher) drop(e Event, reason string) {
	d.dropped.Add(1)
	d.metrics.IncNotificationDropped()
	d.log.Warnw("notification dropped", "reason", reason, "event_id", e.ID, "kind", e.Kind)
}
