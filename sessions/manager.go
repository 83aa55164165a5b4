package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ggoodman/mcp-runtime-go/mcp"
)

// sessionIDBytes is the number of random bytes behind every session id.
const sessionIDBytes = 16

var (
	// ErrSessionRequired is returned when a request carries no session id.
	ErrSessionRequired = errors.New("session id required")
	// ErrInvalidSession is returned when a session id is malformed, or, with
	// WithIssuedOnly, was not issued by this manager.
	ErrInvalidSession = errors.New("invalid session id")
	// ErrInvalidLoggingLevel is returned by SetLogLevel for unknown levels.
	ErrInvalidLoggingLevel = errors.New("invalid logging level")
)

// Manager issues and validates session ids and owns the per-session log
// level table. A Manager is safe for concurrent use; each server instance
// should own its own.
type Manager struct {
	log        *slog.Logger
	levels     LevelStore
	random     io.Reader
	issuedOnly bool
	issued     *sync.Map
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for session lifecycle records.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithLevelStore injects the table that holds per-session log levels.
func WithLevelStore(store LevelStore) Option {
	return func(m *Manager) { m.levels = store }
}

// WithRandom overrides the entropy source used for new ids.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.random = r }
}

// WithIssuedOnly makes Validate additionally require that the id was issued
// by this Manager. Without it validation is a format check only, so ids
// survive process restarts and load-balanced deployments.
func WithIssuedOnly() Option {
	return func(m *Manager) { m.issuedOnly = true }
}

// NewManager constructs a Manager. The default level store is a fresh
// in-memory LevelTable.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		log:    slog.Default(),
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.levels == nil {
		m.levels = NewLevelTable()
	}
	if m.issuedOnly {
		m.issued = &sync.Map{}
	}
	return m
}

// NewSessionID returns a fresh id: 16 random bytes, URL-safe base64 without
// padding (22 characters).
func (m *Manager) NewSessionID(ctx context.Context) (string, error) {
	var buf [sessionIDBytes]byte
	if _, err := io.ReadFull(m.random, buf[:]); err != nil {
		return "", fmt.Errorf("failed to read session entropy: %w", err)
	}
	id := base64.RawURLEncoding.EncodeToString(buf[:])
	if m.issued != nil {
		m.issued.Store(id, struct{}{})
	}
	m.log.DebugContext(ctx, "session.issue.ok")
	return id, nil
}

// Validate checks a client supplied session id. An empty id yields
// ErrSessionRequired; an id that is not URL-safe base64 yields
// ErrInvalidSession.
func (m *Manager) Validate(id string) error {
	if id == "" {
		return ErrSessionRequired
	}
	if _, err := base64.RawURLEncoding.DecodeString(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if m.issued != nil {
		if _, ok := m.issued.Load(id); !ok {
			return fmt.Errorf("%w: not issued by this server", ErrInvalidSession)
		}
	}
	return nil
}

// SetLogLevel records the log level for a session. Unknown levels are
// rejected with ErrInvalidLoggingLevel and leave the table untouched.
func (m *Manager) SetLogLevel(ctx context.Context, id string, level mcp.LoggingLevel) error {
	if !mcp.IsValidLoggingLevel(level) {
		m.log.InfoContext(ctx, "session.set_level.invalid", slog.String("level", string(level)))
		return fmt.Errorf("%w: %q", ErrInvalidLoggingLevel, level)
	}
	m.levels.Store(id, level)
	m.log.InfoContext(ctx, "session.set_level.ok", slog.String("level", string(level)))
	return nil
}

// LogLevel returns the level last set for a session.
func (m *Manager) LogLevel(id string) (mcp.LoggingLevel, bool) {
	return m.levels.Load(id)
}

// Open returns the handle passed to capability handlers for one request.
// private seeds the handle's key/value store and may be nil.
func (m *Manager) Open(id string, private map[string]any) *Session {
	return newSession(id, m.levels, private)
}
