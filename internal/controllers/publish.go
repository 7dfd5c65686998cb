package controllers

import (
	"github.com/questdeck/questdeck/internal/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// publishRoomEvent fans a successful mutation out to the room. Publish
// failures are logged, not surfaced: the mutation already happened.
func publishRoomEvent(ctx fiber.Ctx, publisher domain.RoomEventPublisher, event domain.RoomEvent) {
	if err := publisher.PublishRoomEvent(ctx.RequestCtx(), event); err != nil {
		log.Warn().Err(err).Str("session_id", event.SessionID).Msg("Failed to publish room event")
	}
}
