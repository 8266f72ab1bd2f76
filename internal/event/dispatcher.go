// Package event delivers domain events to notification sinks outside
// the transactions that produced them.
package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

// Sink receives a domain event. Errors are logged by the dispatcher and
// go no further.
type Sink interface {
	Deliver(ctx context.Context, e domain.Event) error
}

const (
	defaultQueueSize    = 64
	deliverTimeout      = 10 * time.Second
	dispatchDropTimeout = 100 * time.Millisecond
)

// Dispatcher fans events out to its sinks from a single background
// worker. Dispatch never fails: when the queue stays full the event is
// dropped and logged, keeping callers decoupled from delivery.
type Dispatcher struct {
	sinks  []Sink
	queue  chan domain.Event
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		sinks:  sinks,
		queue:  make(chan domain.Event, defaultQueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch enqueues the event for asynchronous delivery.
func (d *Dispatcher) Dispatch(e domain.Event) {
	select {
	case d.queue <- e:
	case <-time.After(dispatchDropTimeout):
		d.logger.Warn("event queue full, dropping event", "event", e.Name())
	}
}

// Close stops the worker after draining queued events.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, e); err != nil {
			d.logger.Warn("event delivery failed", "event", e.Name(), "error", err)
		}
	}
}

// LogSink writes every event to the audit log.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(_ context.Context, e domain.Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("order event", "event", e.Name(), "message", e.Message())
	return nil
}
