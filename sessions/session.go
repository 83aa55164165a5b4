package sessions

import (
	"context"
	"maps"
	"sync"

	"github.com/ggoodman/mcp-runtime-go/mcp"
)

// Session is the per-request view of a client session handed to capability
// handlers. It carries the session id, a private key/value store seeded by
// the transport's connection-init hook, and read access to the session's
// log level. The zero value is not usable; obtain one from Manager.Open.
type Session struct {
	id     string
	levels LevelStore

	mu      sync.RWMutex
	private map[string]any
}

func newSession(id string, levels LevelStore, private map[string]any) *Session {
	s := &Session{id: id, levels: levels, private: make(map[string]any, len(private))}
	maps.Copy(s.private, private)
	return s
}

// ID returns the session id. It is empty during initialize.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Get returns a private value.
func (s *Session) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.private[key]
	return v, ok
}

// Set stores a private value for the remainder of the request.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.private[key] = value
}

// LogLevel returns the log level the client selected with logging/setLevel.
func (s *Session) LogLevel() (mcp.LoggingLevel, bool) {
	if s == nil || s.levels == nil || s.id == "" {
		return "", false
	}
	return s.levels.Load(s.id)
}

type sessionKey struct{}

// WithSession returns a context carrying s for capability handlers.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
