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

const blueprintCollection = "blueprints"

type BlueprintController struct {
	documents persistence.DocumentStore
	folders   domain.FolderManager
	blobs     domain.BlobManager
	publisher domain.RoomEventPublisher
}

type BlueprintControllerDependencies struct {
	DocumentStore      persistence.DocumentStore
	FolderManager      domain.FolderManager
	BlobManager        domain.BlobManager
	RoomEventPublisher domain.RoomEventPublisher
}

func NewBlueprintController(deps BlueprintControllerDependencies) *BlueprintController {
	return &BlueprintController{
		documents: deps.DocumentStore,
		folders:   deps.FolderManager,
		blobs:     deps.BlobManager,
		publisher: deps.RoomEventPublisher,
	}
}

type createBlueprintRequest struct {
	Name      string `json:"name"`
	ImageID   string `json:"image_id"`
	Path      string `json:"path"`
	CreatedBy string `json:"created_by"`
}

func (c *BlueprintController) CreateBlueprint(ctx fiber.Ctx) error {
	var req createBlueprintRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Blueprint name is required")
	}

	sessionID := ctx.Params("sessionID")

	path, err := pathFromString(req.Path)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	blueprint := domain.Blueprint{
		ID:        xid.New().String(),
		SessionID: sessionID,
		Name:      req.Name,
		ImageID:   req.ImageID,
		CreatedBy: req.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.documents.Create(ctx.RequestCtx(), blueprintCollection, blueprint); err != nil {
		return httpError(err)
	}

	ref := domain.CollectionRef{Kind: domain.CollectionBlueprints, OwnerID: sessionID}
	if err := c.folders.AddItem(ctx.RequestCtx(), ref, blueprint.ID, path); err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventEntityCreated,
		SessionID: sessionID,
		SenderID:  req.CreatedBy,
		Payload:   blueprint,
	})

	return ctx.Status(fiber.StatusCreated).JSON(blueprint)
}

func (c *BlueprintController) GetBlueprint(ctx fiber.Ctx) error {
	var blueprint domain.Blueprint
	err := c.documents.FindByID(ctx.RequestCtx(), blueprintCollection, ctx.Params("blueprintID"), &blueprint)
	if err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusOK).JSON(blueprint)
}

type updateBlueprintImageRequest struct {
	ImageID string `json:"image_id"`
}

// UpdateBlueprintImage swaps the blueprint's art. The old image's
// ownership is released first; the new image arrives with its own
// implied owner from upload, so no retain is needed here.
func (c *BlueprintController) UpdateBlueprintImage(ctx fiber.Ctx) error {
	var req updateBlueprintImageRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ImageID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "image_id is required")
	}

	blueprintID := ctx.Params("blueprintID")

	var blueprint domain.Blueprint
	if err := c.documents.FindByID(ctx.RequestCtx(), blueprintCollection, blueprintID, &blueprint); err != nil {
		return httpError(err)
	}

	if blueprint.ImageID != "" && blueprint.ImageID != req.ImageID {
		if err := c.blobs.AdjustRefCount(ctx.RequestCtx(), blueprint.ImageID, -1); err != nil {
			return httpError(err)
		}
	}

	err := c.documents.UpdateByID(ctx.RequestCtx(), blueprintCollection, blueprintID,
		persistence.Set(persistence.FieldPath{"image_id"}, req.ImageID),
		persistence.Set(persistence.FieldPath{"updated_at"}, time.Now().UTC()))
	if err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventEntityCreated,
		SessionID: blueprint.SessionID,
		Payload:   fiber.Map{"blueprint_id": blueprintID, "image_id": req.ImageID},
	})

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *BlueprintController) DeleteBlueprint(ctx fiber.Ctx) error {
	blueprintID := ctx.Params("blueprintID")
	sessionID := ctx.Params("sessionID")

	path, err := pathFromString(ctx.Query("path"))
	if err != nil {
		return err
	}

	if err := c.DeleteItem(ctx.RequestCtx(), blueprintID); err != nil {
		return httpError(err)
	}

	ref := domain.CollectionRef{Kind: domain.CollectionBlueprints, OwnerID: sessionID}
	if err := c.folders.RemoveItem(ctx.RequestCtx(), ref, blueprintID, path); err != nil {
		return httpError(err)
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventEntityDeleted,
		SessionID: sessionID,
		Payload:   fiber.Map{"blueprint_id": blueprintID},
	})

	return ctx.SendStatus(fiber.StatusNoContent)
}

// DeleteItem is the blueprint entity's delete path, also invoked by
// folder cascades. Idempotent for already-deleted ids so cascade
// retries are safe.
func (c *BlueprintController) DeleteItem(ctx context.Context, blueprintID string) error {
	var blueprint domain.Blueprint
	err := c.documents.FindByID(ctx, blueprintCollection, blueprintID, &blueprint)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load blueprint: %w", err)
	}

	if blueprint.ImageID != "" {
		if err := c.blobs.AdjustRefCount(ctx, blueprint.ImageID, -1); err != nil {
			return fmt.Errorf("failed to release blueprint image: %w", err)
		}
	}

	err = c.documents.DeleteByID(ctx, blueprintCollection, blueprintID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("failed to delete blueprint: %w", err)
	}

	return nil
}
