package domain

import "context"

type RoomEventType string

const (
	RoomEventMemberJoined   RoomEventType = "member_joined"
	RoomEventMemberLeft     RoomEventType = "member_left"
	RoomEventStateChanged   RoomEventType = "state_changed"
	RoomEventPauseChanged   RoomEventType = "pause_changed"
	RoomEventEntityCreated  RoomEventType = "entity_created"
	RoomEventEntityDeleted  RoomEventType = "entity_deleted"
	RoomEventFolderChanged  RoomEventType = "folder_changed"
	RoomEventSceneActivated RoomEventType = "scene_activated"
)

// RoomEvent is fanned out to every member of a room after a successful
// mutation. The core never publishes events itself; feature handlers do.
type RoomEvent struct {
	Type      RoomEventType `json:"type"`
	SessionID string        `json:"session_id"`
	SenderID  string        `json:"sender_id,omitempty"`
	Payload   any           `json:"payload,omitempty"`
}

// RoomEventPublisher is the broadcast boundary. Delivery to individual
// clients happens outside this process.
type RoomEventPublisher interface {
	PublishRoomEvent(ctx context.Context, event RoomEvent) error
}
