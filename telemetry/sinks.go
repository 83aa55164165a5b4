package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// SlogSink writes each event as a structured log record named
// "telemetry.<name>.<phase>".
type SlogSink struct {
	log   *slog.Logger
	level slog.Level
}

// NewSlogSink returns a sink logging at level.
func NewSlogSink(log *slog.Logger, level slog.Level) *SlogSink {
	if log == nil {
		log = slog.Default()
	}
	return &SlogSink{log: log, level: level}
}

func (s *SlogSink) Handle(ctx context.Context, ev Event) {
	if !s.log.Enabled(ctx, s.level) {
		return
	}
	attrs := []slog.Attr{
		slog.String("event_id", ev.ID),
		slog.String("method", ev.Method),
	}
	if ev.Phase != PhaseStart {
		attrs = append(attrs, slog.Duration("dur", ev.Duration))
	}
	if ev.Error != "" {
		attrs = append(attrs, slog.String("err", ev.Error))
	}
	for k, v := range ev.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.log.LogAttrs(ctx, s.level, "telemetry."+ev.Name+"."+string(ev.Phase), attrs...)
}

// Multi fans each event out to every sink in order. A panicking sink is
// logged and skipped so later sinks still see the event.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, ev Event) {
		for _, s := range sinks {
			handleRecovered(ctx, s, ev)
		}
	})
}

func handleRecovered(ctx context.Context, s Sink, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().ErrorContext(ctx, "telemetry.sink.panic", slog.String("event", ev.Name), slog.Any("panic", r))
		}
	}()
	s.Handle(ctx, ev)
}

// AsyncSink queues events for a background worker that feeds the wrapped
// sink. When the queue is full new events are dropped and counted.
type AsyncSink struct {
	inner   Sink
	queue   chan Event
	dropped atomic.Int64
	log     *slog.Logger

	// mu orders Handle against Close so nothing is queued after the drain.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewAsyncSink starts the worker. Call Close to drain and stop it.
func NewAsyncSink(inner Sink, buffer int, log *slog.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	s := &AsyncSink{
		inner:   inner,
		queue:   make(chan Event, buffer),
		log:     log,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncSink) Handle(ctx context.Context, ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded.
func (s *AsyncSink) Dropped() int64 { return s.dropped.Load() }

// Close stops accepting events and waits until queued events are delivered
// or ctx ends.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
	})
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.stopped)
	for {
		select {
		case ev := <-s.queue:
			s.deliver(ev)
		case <-s.done:
			for {
				select {
				case ev := <-s.queue:
					s.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *AsyncSink) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("telemetry.async.panic", slog.String("event", ev.Name), slog.Any("panic", r))
		}
	}()
	s.inner.Handle(context.Background(), ev)
}
