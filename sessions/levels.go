package sessions

import (
	"sync"

	"github.com/ggoodman/mcp-runtime-go/mcp"
)

// LevelStore holds the log level chosen by each session. Writes are
// single-key upserts so implementations need no read-modify-write support.
type LevelStore interface {
	Store(sessionID string, level mcp.LoggingLevel)
	Load(sessionID string) (mcp.LoggingLevel, bool)
}

// LevelTable is the in-memory LevelStore. Entries are never pruned.
type LevelTable struct {
	m sync.Map
}

var _ LevelStore = (*LevelTable)(nil)

// NewLevelTable returns an empty table.
func NewLevelTable() *LevelTable {
	return &LevelTable{}
}

func (t *LevelTable) Store(sessionID string, level mcp.LoggingLevel) {
	t.m.Store(sessionID, level)
}

func (t *LevelTable) Load(sessionID string) (mcp.LoggingLevel, bool) {
	v, ok := t.m.Load(sessionID)
	if !ok {
		return "", false
	}
	return v.(mcp.LoggingLevel), true
}
