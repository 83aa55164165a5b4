// Package redissink publishes telemetry events to a Redis stream so that
// several server processes can feed one collector.
package redissink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/mcp-runtime-go/telemetry"
)

// Config for the Redis stream sink. Defaults can be loaded via envdecode.
type Config struct {
	// URL like "redis://localhost:6379/0". ENV: MCP_TELEMETRY_REDIS_URL
	URL string `env:"MCP_TELEMETRY_REDIS_URL,default=redis://localhost:6379/0"`
	// Stream key events are appended to. ENV: MCP_TELEMETRY_STREAM
	Stream string `env:"MCP_TELEMETRY_STREAM,default=mcp:telemetry"`
	// MaxLen approximately caps the stream length. ENV: MCP_TELEMETRY_STREAM_MAXLEN
	MaxLen int64 `env:"MCP_TELEMETRY_STREAM_MAXLEN,default=10000"`
	// WriteTimeout bounds each XADD. ENV: MCP_TELEMETRY_WRITE_TIMEOUT
	WriteTimeout time.Duration `env:"MCP_TELEMETRY_WRITE_TIMEOUT,default=2s"`
}

// StreamClient is the subset of *redis.Client the sink uses.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd
	Close() error
}

// Sink appends each event as one stream entry whose "e" field holds the JSON
// encoded event.
type Sink struct {
	client  StreamClient
	stream  string
	maxLen  int64
	timeout time.Duration
	log     *slog.Logger
}

var _ telemetry.Sink = (*Sink)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Sink, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	cl := redis.NewClient(opts)
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(cl, cfg, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client StreamClient, cfg Config, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	stream := cfg.Stream
	if stream == "" {
		stream = "mcp:telemetry"
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Sink{client: client, stream: stream, maxLen: cfg.MaxLen, timeout: timeout, log: log}
}

// Close closes the Redis client.
func (s *Sink) Close() error { return s.client.Close() }

// Handle publishes ev and logs failures; it satisfies telemetry.Sink.
func (s *Sink) Handle(ctx context.Context, ev telemetry.Event) {
	if _, err := s.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "telemetry.redis.publish.fail", slog.String("err", err.Error()), slog.String("event", ev.Name))
	}
}

// Publish appends ev to the stream and returns the entry id.
func (s *Sink) Publish(ctx context.Context, ev telemetry.Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{"e": data, "name": ev.Name, "phase": string(ev.Phase)},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Result()
}

// Tail reads events appended after lastID ("" means only new entries) and
// calls fn for each until ctx ends or fn returns an error.
func (s *Sink) Tail(ctx context.Context, lastID string, fn func(entryID string, ev telemetry.Event) error) error {
	start := lastID
	if start == "" {
		start = "$"
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		res, err := s.client.XRead(ctx, &redis.XReadArgs{Streams: []string{s.stream, start}, Count: 16, Block: 500 * time.Millisecond}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		for _, stream := range res {
			for _, m := range stream.Messages {
				start = m.ID
				ev, err := decodeEntry(m.Values)
				if err != nil {
					s.log.WarnContext(ctx, "telemetry.redis.tail.skip", slog.String("entry", m.ID), slog.String("err", err.Error()))
					continue
				}
				if err := fn(m.ID, ev); err != nil {
					return err
				}
			}
		}
	}
}

func decodeEntry(values map[string]any) (telemetry.Event, error) {
	var payload []byte
	switch v := values["e"].(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		return telemetry.Event{}, fmt.Errorf("unexpected payload type %T", v)
	}
	var ev telemetry.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return telemetry.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
