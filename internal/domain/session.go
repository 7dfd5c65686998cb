package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionState is the authoritative per-room record. Members grows on
// join and shrinks on leave or disconnect; ActiveScene and Synced are
// mutated only through the session manager.
type SessionState struct {
	ID          string   `bson:"_id" json:"_id"`
	Master      string   `bson:"master" json:"master"`
	Members     []string `bson:"members" json:"members"`
	ActiveScene *string  `bson:"active_scene" json:"active_scene"`
	Synced      bool     `bson:"synced" json:"synced"`
	Paused      bool     `bson:"paused" json:"paused"`
}

// SessionSnapshot is what a joining member receives: the authoritative
// room state plus whether the member itself holds master authority.
type SessionSnapshot struct {
	SessionID   string   `json:"session_id"`
	Master      string   `json:"master"`
	IsMaster    bool     `json:"is_master"`
	Members     []string `json:"members"`
	ActiveScene *string  `json:"active_scene"`
	Synced      bool     `json:"synced"`
	Paused      bool     `json:"paused"`
}

// SessionMirror is the per-connection projection of the session the
// connection is joined to. The zero value is the unjoined sentinel.
type SessionMirror struct {
	Joined      bool    `json:"joined"`
	SessionID   string  `json:"session_id,omitempty"`
	MemberID    string  `json:"member_id,omitempty"`
	IsMaster    bool    `json:"is_master"`
	ActiveScene *string `json:"active_scene,omitempty"`
	Synced      bool    `json:"synced"`
}

func (m *SessionMirror) Clear() {
	*m = SessionMirror{}
}

// ConnectionContext is owned by the transport layer and passed by
// reference into every session call. The core keeps no per-connection
// state of its own.
type ConnectionContext struct {
	ConnectionID string
	Session      SessionMirror
}

func NewConnectionContext() *ConnectionContext {
	return &ConnectionContext{
		ConnectionID: uuid.NewString(),
	}
}

// SessionManager implements the room membership and authority protocol.
//
// Leave and Disconnect converge on identical post-conditions: when the
// departing member is the master, the shared scene pointer is cleared
// and synced is reset for everyone, whether the departure was graceful
// or abrupt. Broadcasting membership changes is the caller's
// responsibility.
type SessionManager interface {
	Open(ctx context.Context, sessionID, masterID string) (SessionState, error)
	Join(ctx context.Context, conn *ConnectionContext, sessionID, memberID string) (SessionSnapshot, error)
	Leave(ctx context.Context, conn *ConnectionContext) error
	Disconnect(ctx context.Context, conn *ConnectionContext) error
	SetState(ctx context.Context, sessionID string, scene *string, synced bool) error
	SetPaused(ctx context.Context, sessionID string, paused bool) error
	Snapshot(ctx context.Context, sessionID string) (SessionState, error)
}
