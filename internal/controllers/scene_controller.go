package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/persistence"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/xid"
)

const sceneCollection = "scenes"

type SceneController struct {
	documents persistence.DocumentStore
	folders   domain.FolderManager
	blobs     domain.BlobManager
	sessions  domain.SessionManager
	publisher domain.RoomEventPublisher
}

type SceneControllerDependencies struct {
	DocumentStore      persistence.DocumentStore
	FolderManager      domain.FolderManager
	BlobManager        domain.BlobManager
	SessionManager     domain.SessionManager
	RoomEventPublisher domain.RoomEventPublisher
}

func NewSceneController(deps SceneControllerDependencies) *SceneController {
	return &SceneController{
		documents: deps.DocumentStore,
		folders:   deps.FolderManager,
		blobs:     deps.BlobManager,
		sessions:  deps.SessionManager,
		publisher: deps.RoomEventPublisher,
	}
}

type createSceneRequest struct {
	Name     string `json:"name"`
	ImageID  string `json:"image_id"`
	GridSize int    `json:"grid_size"`
	Path     string `json:"path"`
}

func (c *SceneController) CreateScene(ctx fiber.Ctx) error {
	var req createSceneRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Scene name is required")
	}

	sessionID := ctx.Params("sessionID")

	path, err := pathFromString(req.Path)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	scene := domain.Scene{
		ID:        xid.New().String(),
		SessionID: sessionID,
		Name:      req.Name,
		ImageID:   req.ImageID,
		GridSize:  req.GridSize,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.documents.Create(ctx.RequestCtx(), sceneCollection, scene); err != nil {
		return httpError(err)
	}

	ref := domain.CollectionRef{Kind: domain.CollectionScenes, OwnerID: sessionID}
	if err := c.folders.AddItem(ctx.RequestCtx(), ref, scene.ID, path); err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventEntityCreated,
		SessionID: sessionID,
		Payload:   scene,
	})

	return ctx.Status(fiber.StatusCreated).JSON(scene)
}

func (c *SceneController) GetScene(ctx fiber.Ctx) error {
	var scene domain.Scene
	if err := c.documents.FindByID(ctx.RequestCtx(), sceneCollection, ctx.Params("sceneID"), &scene); err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusOK).JSON(scene)
}

type activateSceneRequest struct {
	Synced bool `json:"synced"`
}

// ActivateScene makes a scene the room's shared ground truth through
// the authority protocol. Only the master should call this; enforcing
// that is the transport layer's concern.
func (c *SceneController) ActivateScene(ctx fiber.Ctx) error {
	var req activateSceneRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sessionID := ctx.Params("sessionID")
	sceneID := ctx.Params("sceneID")

	var scene domain.Scene
	if err := c.documents.FindByID(ctx.RequestCtx(), sceneCollection, sceneID, &scene); err != nil {
		return httpError(err)
	}

	if err := c.sessions.SetState(ctx.RequestCtx(), sessionID, &sceneID, req.Synced); err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventSceneActivated,
		SessionID: sessionID,
		Payload:   fiber.Map{"scene_id": sceneID, "synced": req.Synced},
	})

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *SceneController) DeleteScene(ctx fiber.Ctx) error {
	sceneID := ctx.Params("sceneID")
	sessionID := ctx.Params("sessionID")

	path, err := pathFromString(ctx.Query("path"))
	if err != nil {
		return err
	}

	if err := c.DeleteItem(ctx.RequestCtx(), sceneID); err != nil {
		return httpError(err)
	}

	ref := domain.CollectionRef{Kind: domain.CollectionScenes, OwnerID: sessionID}
	if err := c.folders.RemoveItem(ctx.RequestCtx(), ref, sceneID, path); err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventEntityDeleted,
		SessionID: sessionID,
		Payload:   fiber.Map{"scene_id": sceneID},
	})

	return ctx.SendStatus(fiber.StatusNoContent)
}

// DeleteItem is the scene entity's delete path, also invoked by folder
// cascades.
func (c *SceneController) DeleteItem(ctx context.Context, sceneID string) error {
	var scene domain.Scene
	err := c.documents.FindByID(ctx, sceneCollection, sceneID, &scene)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}

	if scene.ImageID != "" {
		if err := c.blobs.AdjustRefCount(ctx, scene.ImageID, -1); err != nil {
			return fmt.Errorf("failed to release scene image: %w", err)
		}
	}

	err = c.documents.DeleteByID(ctx, sceneCollection, sceneID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("failed to delete scene: %w", err)
	}

	return nil
}
