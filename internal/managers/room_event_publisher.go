package managers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/questdeck/questdeck/internal/domain"

	"github.com/redis/go-redis/v9"
)

type redisRoomEventPublisher struct {
	client *redis.Client
}

type RoomEventPublisherDependencies struct {
	Client *redis.Client
}

func NewRoomEventPublisher(deps RoomEventPublisherDependencies) domain.RoomEventPublisher {
	return &redisRoomEventPublisher{
		client: deps.Client,
	}
}

func roomChannel(sessionID string) string {
	return fmt.Sprintf("room:%s", sessionID)
}

func (p *redisRoomEventPublisher) PublishRoomEvent(ctx context.Context, event domain.RoomEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}

	if err := p.client.Publish(ctx, roomChannel(event.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish room event: %w", err)
	}

	return nil
}
