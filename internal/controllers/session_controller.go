package controllers

import (
	"github.com/questdeck/questdeck/internal/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/xid"
)

type SessionController struct {
	sessions    domain.SessionManager
	publisher   domain.RoomEventPublisher
	connections *ConnectionRegistry
}

type SessionControllerDependencies struct {
	SessionManager     domain.SessionManager
	RoomEventPublisher domain.RoomEventPublisher
	ConnectionRegistry *ConnectionRegistry
}

func NewSessionController(deps SessionControllerDependencies) *SessionController {
	return &SessionController{
		sessions:    deps.SessionManager,
		publisher:   deps.RoomEventPublisher,
		connections: deps.ConnectionRegistry,
	}
}

type openSessionRequest struct {
	SessionID string `json:"session_id"`
	MasterID  string `json:"master_id"`
}

func (c *SessionController) OpenSession(ctx fiber.Ctx) error {
	var req openSessionRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.MasterID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "master_id is required")
	}

	if req.SessionID == "" {
		req.SessionID = xid.New().String()
	}

	state, err := c.sessions.Open(ctx.RequestCtx(), req.SessionID, req.MasterID)
	if err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(state)
}

type joinSessionRequest struct {
	MemberID string `json:"member_id"`
}

type joinSessionResponse struct {
	ConnectionID string                 `json:"connection_id"`
	Snapshot     domain.SessionSnapshot `json:"snapshot"`
}

func (c *SessionController) JoinSession(ctx fiber.Ctx) error {
	var req joinSessionRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.MemberID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "member_id is required")
	}

	sessionID := ctx.Params("sessionID")
	conn := c.connections.GetOrCreate(ctx.Get(ConnectionHeader))

	snapshot, err := c.sessions.Join(ctx.RequestCtx(), conn, sessionID, req.MemberID)
	if err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventMemberJoined,
		SessionID: sessionID,
		SenderID:  req.MemberID,
	})

	return ctx.Status(fiber.StatusOK).JSON(joinSessionResponse{
		ConnectionID: conn.ConnectionID,
		Snapshot:     snapshot,
	})
}

func (c *SessionController) LeaveSession(ctx fiber.Ctx) error {
	conn := c.connections.GetOrCreate(ctx.Get(ConnectionHeader))
	mirror := conn.Session

	if err := c.sessions.Leave(ctx.RequestCtx(), conn); err != nil {
		return httpError(err)
	}

	if mirror.Joined {
		publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
			Type:      domain.RoomEventMemberLeft,
			SessionID: mirror.SessionID,
			SenderID:  mirror.MemberID,
		})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// Disconnect is invoked by the transport layer when a client drops
// without an explicit leave. Post-conditions match LeaveSession.
func (c *SessionController) Disconnect(ctx fiber.Ctx) error {
	conn := c.connections.GetOrCreate(ctx.Get(ConnectionHeader))
	mirror := conn.Session

	if err := c.sessions.Disconnect(ctx.RequestCtx(), conn); err != nil {
		return httpError(err)
	}
	c.connections.Remove(conn.ConnectionID)

	if mirror.Joined {
		publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
			Type:      domain.RoomEventMemberLeft,
			SessionID: mirror.SessionID,
			SenderID:  mirror.MemberID,
		})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

type setStateRequest struct {
	ActiveScene *string `json:"active_scene"`
	Synced      bool    `json:"synced"`
}

func (c *SessionController) SetState(ctx fiber.Ctx) error {
	var req setStateRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sessionID := ctx.Params("sessionID")

	if err := c.sessions.SetState(ctx.RequestCtx(), sessionID, req.ActiveScene, req.Synced); err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventStateChanged,
		SessionID: sessionID,
		Payload:   req,
	})

	return ctx.SendStatus(fiber.StatusNoContent)
}

type setPausedRequest struct {
	Paused bool `json:"paused"`
}

func (c *SessionController) SetPaused(ctx fiber.Ctx) error {
	var req setPausedRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sessionID := ctx.Params("sessionID")

	if err := c.sessions.SetPaused(ctx.RequestCtx(), sessionID, req.Paused); err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventPauseChanged,
		SessionID: sessionID,
		Payload:   req,
	})

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *SessionController) GetSession(ctx fiber.Ctx) error {
	state, err := c.sessions.Snapshot(ctx.RequestCtx(), ctx.Params("sessionID"))
	if err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusOK).JSON(state)
}
