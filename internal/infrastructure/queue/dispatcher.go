package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ceasar/auth-service/internal/core/domain"
	"github.com/ceasar/auth-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the username, so events for one account are recorded in order.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	sink    ports.AuditSink
	log     zerolog.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.AuditSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit once Close drains them.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its username.
// It never blocks: when the worker's buffer is full the event is dropped.
func (d *Dispatcher) Enqueue(event domain.AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.workers[d.shardIndex(event.Username)] <- event:
	default:
		d.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because a buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be recorded.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a username deterministically to a worker index.
func (d *Dispatcher) shardIndex(username string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for event := range ch {
		if err := d.sink.Record(context.WithoutCancel(ctx), event); err != nil {
			d.log.Error().Err(err).
				Str("event", string(event.Type)).
				Str("username", event.Username).
				Int("worker_id", id).
				Msg("audit record failed")
		}
	}
}

// LogSink writes audit events to a zerolog logger.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Record(_ context.Context, event domain.AuditEvent) error {
	ev := s.log.Info().
		Str("event", string(event.Type)).
		Str("username", event.Username).
		Time("at", event.At)
	if event.UserID != "" {
		ev = ev.Str("user_id", event.UserID)
	}
	if event.RemoteIP != "" {
		ev = ev.Str("remote_ip", event.RemoteIP)
	}
	if event.Reason != "" {
		ev = ev.Str("reason", event.Reason)
	}
	ev.Msg("auth event")
	return nil
}
