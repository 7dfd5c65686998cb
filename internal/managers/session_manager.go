package managers

import (
	"context"
	"errors"
	"fmt"

	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/persistence"

	"github.com/rs/zerolog/log"
)

const sessionCollection = "sessions"

type sessionManager struct {
	documents persistence.DocumentStore
}

type SessionManagerDependencies struct {
	DocumentStore persistence.DocumentStore
}

func NewSessionManager(deps SessionManagerDependencies) domain.SessionManager {
	return &sessionManager{
		documents: deps.DocumentStore,
	}
}

func (m *sessionManager) Open(ctx context.Context, sessionID, masterID string) (domain.SessionState, error) {
	var existing domain.SessionState
	err := m.documents.FindByID(ctx, sessionCollection, sessionID, &existing)
	if err == nil {
		return domain.SessionState{}, domain.ErrSessionExists
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return domain.SessionState{}, fmt.Errorf("failed to look up session: %w", err)
	}

	state := domain.SessionState{
		ID:      sessionID,
		Master:  masterID,
		Members: []string{},
	}
	if err := m.documents.Create(ctx, sessionCollection, state); err != nil {
		return domain.SessionState{}, fmt.Errorf("failed to create session: %w", err)
	}

	return state, nil
}

func (m *sessionManager) Join(ctx context.Context, conn *domain.ConnectionContext, sessionID, memberID string) (domain.SessionSnapshot, error) {
	err := m.documents.UpdateByID(ctx, sessionCollection, sessionID,
		persistence.AddToSet(persistence.FieldPath{"members"}, memberID))
	if errors.Is(err, persistence.ErrNotFound) {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to join session: %w", err)
	}

	var state domain.SessionState
	if err := m.documents.FindByID(ctx, sessionCollection, sessionID, &state); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to read session: %w", err)
	}

	isMaster := memberID == state.Master

	conn.Session = domain.SessionMirror{
		Joined:      true,
		SessionID:   sessionID,
		MemberID:    memberID,
		IsMaster:    isMaster,
		ActiveScene: state.ActiveScene,
		Synced:      state.Synced,
	}

	log.Info().
		Str("session_id", sessionID).
		Str("member_id", memberID).
		Bool("is_master", isMaster).
		Msg("Member joined session")

	return domain.SessionSnapshot{
		SessionID:   sessionID,
		Master:      state.Master,
		IsMaster:    isMaster,
		Members:     state.Members,
		ActiveScene: state.ActiveScene,
		Synced:      state.Synced,
		Paused:      state.Paused,
	}, nil
}

func (m *sessionManager) Leave(ctx context.Context, conn *domain.ConnectionContext) error {
	if !conn.Session.Joined {
		// Leaving twice, or disconnecting after an explicit leave, is a
		// no-op.
		return nil
	}

	mirror := conn.Session

	ops := []persistence.FieldOp{
		persistence.Pull(persistence.FieldPath{"members"}, mirror.MemberID),
	}

	// Authority leaving invalidates the shared scene state for every
	// remaining member, whether the departure was graceful or abrupt.
	if mirror.IsMaster {
		ops = append(ops,
			persistence.Set(persistence.FieldPath{"active_scene"}, nil),
			persistence.Set(persistence.FieldPath{"synced"}, false))
	}

	err := m.documents.UpdateByID(ctx, sessionCollection, mirror.SessionID, ops...)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		// The mirror stays joined until the write lands so a failed
		// leave can be retried.
		return fmt.Errorf("failed to leave session: %w", err)
	}

	conn.Session.Clear()

	if errors.Is(err, persistence.ErrNotFound) {
		// Room already torn down.
		return nil
	}

	log.Info().
		Str("session_id", mirror.SessionID).
		Str("member_id", mirror.MemberID).
		Bool("was_master", mirror.IsMaster).
		Msg("Member left session")

	return nil
}

func (m *sessionManager) Disconnect(ctx context.Context, conn *domain.ConnectionContext) error {
	// Abrupt disconnects converge on the same post-conditions as an
	// explicit leave.
	return m.Leave(ctx, conn)
}

func (m *sessionManager) SetState(ctx context.Context, sessionID string, scene *string, synced bool) error {
	err := m.documents.UpdateByID(ctx, sessionCollection, sessionID,
		persistence.Set(persistence.FieldPath{"active_scene"}, scene),
		persistence.Set(persistence.FieldPath{"synced"}, synced))
	if errors.Is(err, persistence.ErrNotFound) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set session state: %w", err)
	}

	return nil
}

func (m *sessionManager) SetPaused(ctx context.Context, sessionID string, paused bool) error {
	err := m.documents.UpdateByID(ctx, sessionCollection, sessionID,
		persistence.Set(persistence.FieldPath{"paused"}, paused))
	if errors.Is(err, persistence.ErrNotFound) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set session pause: %w", err)
	}

	return nil
}

func (m *sessionManager) Snapshot(ctx context.Context, sessionID string) (domain.SessionState, error) {
	var state domain.SessionState
	err := m.documents.FindByID(ctx, sessionCollection, sessionID, &state)
	if errors.Is(err, persistence.ErrNotFound) {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("failed to read session: %w", err)
	}

	return state, nil
}
