package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoodman/mcp-runtime-go/telemetry"
)

type recorder struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (r *recorder) Handle(_ context.Context, ev telemetry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []telemetry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telemetry.Event(nil), r.events...)
}

func TestSpan_StartStop(t *testing.T) {
	rec := &recorder{}
	em := telemetry.NewEmitter(rec)

	span := em.Start(context.Background(), telemetry.Event{Name: telemetry.EventToolCall, Method: "tools/call", Metadata: map[string]any{"tool": "echo"}})
	time.Sleep(2 * time.Millisecond)
	span.Stop(context.Background(), map[string]any{"is_error": false})

	evs := rec.snapshot()
	require.Len(t, evs, 2)
	assert.Equal(t, telemetry.PhaseStart, evs[0].Phase)
	assert.Zero(t, evs[0].Duration)
	assert.NotEmpty(t, evs[0].ID)
	assert.False(t, evs[0].Time.IsZero())

	assert.Equal(t, telemetry.PhaseStop, evs[1].Phase)
	assert.GreaterOrEqual(t, evs[1].Duration, 2*time.Millisecond)
	assert.Equal(t, "echo", evs[1].Metadata["tool"])
	assert.Equal(t, false, evs[1].Metadata["is_error"])
	assert.NotEqual(t, evs[0].ID, evs[1].ID)
}

func TestSpan_FailWithDuration(t *testing.T) {
	rec := &recorder{}
	span := telemetry.NewEmitter(rec).Start(context.Background(), telemetry.Event{Name: telemetry.EventResourceRead})
	span.FailWithDuration(context.Background(), errors.New("resource not found"), 0, nil)

	evs := rec.snapshot()
	require.Len(t, evs, 2)
	assert.Equal(t, telemetry.PhaseException, evs[1].Phase)
	assert.Equal(t, time.Duration(0), evs[1].Duration)
	assert.Equal(t, "resource not found", evs[1].Error)
}

func TestEmitter_RecoversSinkPanic(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	em := telemetry.NewEmitter(telemetry.SinkFunc(func(context.Context, telemetry.Event) {
		panic("boom")
	}), telemetry.WithEmitterLogger(log))

	assert.NotPanics(t, func() {
		em.Emit(context.Background(), telemetry.Event{Name: telemetry.EventRequest, Phase: telemetry.PhaseStart})
	})
	assert.Contains(t, buf.String(), "telemetry.emit.panic")
}

func TestEmitter_NilSinkDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.NewEmitter(nil).Emit(context.Background(), telemetry.Event{Name: "x"})
	})
}

func TestAsyncSink_DeliversAndDrains(t *testing.T) {
	rec := &recorder{}
	async := telemetry.NewAsyncSink(rec, 16, nil)
	for range 10 {
		async.Handle(context.Background(), telemetry.Event{Name: "x"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, async.Close(ctx))

	assert.Len(t, rec.snapshot(), 10)
	assert.Zero(t, async.Dropped())

	async.Handle(context.Background(), telemetry.Event{Name: "late"})
	assert.EqualValues(t, 1, async.Dropped())
}

func TestAsyncSink_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	blocking := telemetry.SinkFunc(func(context.Context, telemetry.Event) { <-release })
	async := telemetry.NewAsyncSink(blocking, 1, nil)

	start := time.Now()
	for range 20 {
		async.Handle(context.Background(), telemetry.Event{Name: "x"})
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond, "Handle must not block")
	assert.Positive(t, async.Dropped())

	close(release)
	require.NoError(t, async.Close(context.Background()))
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := telemetry.NewSlogSink(slog.New(slog.NewTextHandler(&buf, nil)), slog.LevelInfo)
	sink.Handle(context.Background(), telemetry.Event{Name: telemetry.EventPromptGet, Phase: telemetry.PhaseStop, Duration: time.Second, Method: "prompts/get"})

	out := buf.String()
	assert.Contains(t, out, "telemetry.prompt_get.stop")
	assert.Contains(t, out, "dur=1s")
	assert.Contains(t, out, "method=prompts/get")
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	telemetry.Multi(a, b).Handle(context.Background(), telemetry.Event{Name: "x"})
	assert.Len(t, a.snapshot(), 1)
	assert.Len(t, b.snapshot(), 1)
}

func TestMulti_PanickingSinkDoesNotStarveOthers(t *testing.T) {
	after := &recorder{}
	panicky := telemetry.SinkFunc(func(context.Context, telemetry.Event) { panic("boom") })

	assert.NotPanics(t, func() {
		telemetry.Multi(panicky, after).Handle(context.Background(), telemetry.Event{Name: "x"})
	})
	assert.Len(t, after.snapshot(), 1)
}

func TestAsyncSink_ConcurrentCloseAccountsForEveryEvent(t *testing.T) {
	for range 50 {
		rec := &recorder{}
		async := telemetry.NewAsyncSink(rec, 4096, nil)

		const senders, perSender = 8, 50
		var wg sync.WaitGroup
		for range senders {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perSender {
					async.Handle(context.Background(), telemetry.Event{Name: "x"})
				}
			}()
		}
		require.NoError(t, async.Close(context.Background()))
		wg.Wait()

		assert.EqualValues(t, senders*perSender, int64(len(rec.snapshot()))+async.Dropped())
	}
}
