package stdio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ggoodman/mcp-runtime-go/internal/engine"
	"github.com/ggoodman/mcp-runtime-go/internal/logctx"
	"github.com/ggoodman/mcp-runtime-go/registry"
	"github.com/ggoodman/mcp-runtime-go/sessions"
)

// maxMessageBytes bounds a single newline-delimited message.
const maxMessageBytes = 1_000_000

// UserKey is the session private-data key holding the peer's user id.
const UserKey = "user"

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes replies to an io.Writer. By
// default it uses os.Stdin and os.Stdout and identifies the peer as the
// current OS user.
//
// The session id issued by initialize is remembered for the life of the
// connection, so clients never send it explicitly.
type Handler struct {
	r            io.Reader
	w            io.Writer
	l            *slog.Logger
	userProvider UserProvider
	engOpts      []engine.EngineOption
	sessions     *sessions.Manager
	eng          *engine.Engine
}

// NewHandler constructs a stdio Handler serving reg.
func NewHandler(reg *registry.Registry, opts ...Option) *Handler {
	h := &Handler{
		r:            os.Stdin,
		w:            os.Stdout,
		l:            slog.Default(),
		userProvider: OSUserProvider{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.l = logctx.Wrap(h.l)
	if h.sessions == nil {
		h.sessions = sessions.NewManager(sessions.WithLogger(h.l))
	}
	h.eng = engine.NewEngine(reg, h.sessions, append([]engine.EngineOption{engine.WithLogger(h.l)}, h.engOpts...)...)
	return h
}

// Serve runs the event loop until EOF on the reader or ctx is canceled. EOF
// yields a nil error. Messages are handled one at a time in arrival order.
func (h *Handler) Serve(ctx context.Context) error {
	userID, err := h.userProvider.CurrentUserID()
	if err != nil {
		return fmt.Errorf("resolve stdio user: %w", err)
	}
	private := map[string]any{UserKey: userID}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(h.r)
		sc.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	var sessionID string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				h.l.ErrorContext(ctx, "stdio.read.fail", slog.String("err", err.Error()))
				return fmt.Errorf("read stdio: %w", err)
			}
			h.l.InfoContext(ctx, "stdio.eof")
			return nil
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			reply := h.eng.Handle(ctx, engine.Inbound{Body: line, SessionID: sessionID, Private: private})
			if reply.SessionID != "" {
				sessionID = reply.SessionID
			}
			if len(reply.Body) == 0 {
				continue
			}
			if _, err := h.w.Write(append(reply.Body, '\n')); err != nil {
				if errors.Is(err, io.ErrClosedPipe) {
					return nil
				}
				return fmt.Errorf("write stdio: %w", err)
			}
		}
	}
}
