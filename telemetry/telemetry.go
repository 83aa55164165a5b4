// Package telemetry defines the lifecycle events the request engine emits and
// the sinks that receive them.
//
// Emission is fire-and-forget: the engine never waits on a sink, and a sink
// that panics is recovered and logged. Sinks that do I/O should be wrapped in
// an AsyncSink so the request path stays non-blocking.
package telemetry

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"
)

// Phase distinguishes the events of one bracket.
type Phase string

const (
	PhaseStart     Phase = "start"
	PhaseStop      Phase = "stop"
	PhaseException Phase = "exception"
)

// Event names.
const (
	EventRequest            = "request"
	EventSessionInit        = "session_init"
	EventSessionInitialized = "session_initialized"
	EventToolCall           = "tool_call"
	EventPromptGet          = "prompt_get"
	EventResourceRead       = "resource_read"
	EventCompletion         = "completion"
	EventLogging            = "logging"
)

// Event is one lifecycle record. Duration is set on stop and exception
// events only.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Phase     Phase          `json:"phase"`
	Time      time.Time      `json:"time"`
	Duration  time.Duration  `json:"duration,omitempty"`
	Method    string         `json:"method,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Sink receives events. Handle must not block for long; see AsyncSink.
type Sink interface {
	Handle(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Handle(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

// Emitter stamps events and delivers them to a sink, isolating the caller
// from sink faults.
type Emitter struct {
	sink Sink
	log  *slog.Logger
	now  func() time.Time
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithEmitterLogger sets the logger that records recovered sink panics.
func WithEmitterLogger(log *slog.Logger) EmitterOption {
	return func(e *Emitter) { e.log = log }
}

// WithClock overrides the wall clock used for event timestamps.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) { e.now = now }
}

// NewEmitter returns an Emitter delivering to sink. A nil sink discards.
func NewEmitter(sink Sink, opts ...EmitterOption) *Emitter {
	if sink == nil {
		sink = Discard
	}
	e := &Emitter{sink: sink, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit stamps ev with an id and timestamp when unset and hands it to the
// sink. It never panics.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if e == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = ulid.Make().String()
	}
	if ev.Time.IsZero() {
		ev.Time = e.now()
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.ErrorContext(ctx, "telemetry.emit.panic",
				slog.String("event", ev.Name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	e.sink.Handle(ctx, ev)
}

// Span brackets one operation with start and stop or exception events.
type Span struct {
	e     *Emitter
	base  Event
	start time.Time
}

// Start emits the start event of a bracket and returns the span that will
// emit its end. The template's Name, Method, SessionID, RequestID and
// Metadata are copied onto every event of the bracket.
func (e *Emitter) Start(ctx context.Context, template Event) *Span {
	s := &Span{e: e, base: template, start: time.Now()}
	ev := template
	ev.Phase = PhaseStart
	e.Emit(ctx, ev)
	return s
}

// Stop emits the stop event with the elapsed monotonic duration.
func (s *Span) Stop(ctx context.Context, metadata map[string]any) {
	ev := s.base
	ev.Phase = PhaseStop
	ev.Duration = time.Since(s.start)
	ev.Metadata = merge(ev.Metadata, metadata)
	s.e.Emit(ctx, ev)
}

// Fail emits the exception event with the elapsed monotonic duration.
func (s *Span) Fail(ctx context.Context, err error, metadata map[string]any) {
	s.FailWithDuration(ctx, err, time.Since(s.start), metadata)
}

// FailWithDuration emits the exception event with an explicit duration.
func (s *Span) FailWithDuration(ctx context.Context, err error, d time.Duration, metadata map[string]any) {
	ev := s.base
	ev.Phase = PhaseException
	ev.Duration = d
	if err != nil {
		ev.Error = err.Error()
	}
	ev.Metadata = merge(ev.Metadata, metadata)
	s.e.Emit(ctx, ev)
}

func merge(a, b map[string]any) map[string]any {
	if len(b) == 0 {
		return a
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
