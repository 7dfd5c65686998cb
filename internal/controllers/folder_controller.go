package controllers

import (
	"errors"

	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/persistence"

	"github.com/gofiber/fiber/v3"
)

const collectionCollection = "collections"

// FolderController exposes the generic folder tree operations for every
// collection kind. Cascading deletes run each contained item through
// its owning entity's deleter so refcounts and entity side effects fire.
type FolderController struct {
	folders   domain.FolderManager
	documents persistence.DocumentStore
	deleters  map[domain.CollectionKind]domain.ItemDeleter
	publisher domain.RoomEventPublisher
}

type FolderControllerDependencies struct {
	FolderManager      domain.FolderManager
	DocumentStore      persistence.DocumentStore
	ItemDeleters       map[domain.CollectionKind]domain.ItemDeleter
	RoomEventPublisher domain.RoomEventPublisher
}

func NewFolderController(deps FolderControllerDependencies) *FolderController {
	return &FolderController{
		folders:   deps.FolderManager,
		documents: deps.DocumentStore,
		deleters:  deps.ItemDeleters,
		publisher: deps.RoomEventPublisher,
	}
}

func collectionRefFromParams(ctx fiber.Ctx) (domain.CollectionRef, error) {
	kind := domain.CollectionKind(ctx.Params("kind"))
	switch kind {
	case domain.CollectionBlueprints, domain.CollectionScenes, domain.CollectionJournal:
	default:
		return domain.CollectionRef{}, fiber.NewError(fiber.StatusBadRequest, "Unknown collection kind")
	}

	ownerID := ctx.Params("ownerID")
	if ownerID == "" {
		return domain.CollectionRef{}, fiber.NewError(fiber.StatusBadRequest, "Owner id is required")
	}

	return domain.CollectionRef{Kind: kind, OwnerID: ownerID}, nil
}

func pathFromString(raw string) (domain.FolderPath, error) {
	path, err := domain.ParseFolderPath(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Malformed folder path")
	}
	return path, nil
}

type createFolderRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

func (c *FolderController) CreateFolder(ctx fiber.Ctx) error {
	ref, err := collectionRefFromParams(ctx)
	if err != nil {
		return err
	}

	var req createFolderRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Folder name is required")
	}

	path, err := pathFromString(req.Path)
	if err != nil {
		return err
	}

	id, err := c.folders.CreateFolder(ctx.RequestCtx(), ref, path, req.Name)
	if err != nil {
		return httpError(err)
	}

	c.publishFolderChange(ctx, ref)

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"folder_id": id,
		"path":      path.Child(id).String(),
	})
}

// GetFolder resolves a path, or returns the collection root when the
// path is empty.
func (c *FolderController) GetFolder(ctx fiber.Ctx) error {
	ref, err := collectionRefFromParams(ctx)
	if err != nil {
		return err
	}

	path, err := pathFromString(ctx.Query("path"))
	if err != nil {
		return err
	}

	handle, err := c.folders.Resolve(ctx.RequestCtx(), ref, path)
	if err != nil {
		return httpError(err)
	}

	if handle == nil {
		// Collections are created lazily on first write, so the root of
		// an untouched collection reads as empty.
		var doc domain.CollectionDocument
		err := c.documents.FindByID(ctx.RequestCtx(), collectionCollection, ref.DocumentID(), &doc)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return httpError(err)
		}
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"root":     true,
			"contents": doc.Contents,
			"folders":  doc.Folders,
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(handle)
}

type renameFolderRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

func (c *FolderController) RenameFolder(ctx fiber.Ctx) error {
	ref, err := collectionRefFromParams(ctx)
	if err != nil {
		return err
	}

	var req renameFolderRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Folder name is required")
	}

	path, err := pathFromString(req.Path)
	if err != nil {
		return err
	}

	if err := c.folders.RenameFolder(ctx.RequestCtx(), ref, path, req.Name); err != nil {
		return httpError(err)
	}

	c.publishFolderChange(ctx, ref)

	return ctx.SendStatus(fiber.StatusNoContent)
}

type moveFolderRequest struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

func (c *FolderController) MoveFolder(ctx fiber.Ctx) error {
	ref, err := collectionRefFromParams(ctx)
	if err != nil {
		return err
	}

	var req moveFolderRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	oldPath, err := pathFromString(req.OldPath)
	if err != nil {
		return err
	}
	newPath, err := pathFromString(req.NewPath)
	if err != nil {
		return err
	}

	if err := c.folders.MoveFolder(ctx.RequestCtx(), ref, oldPath, newPath); err != nil {
		return httpError(err)
	}

	c.publishFolderChange(ctx, ref)

	return ctx.SendStatus(fiber.StatusNoContent)
}

type moveItemRequest struct {
	ItemID  string `json:"item_id"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

func (c *FolderController) MoveItem(ctx fiber.Ctx) error {
	ref, err := collectionRefFromParams(ctx)
	if err != nil {
		return err
	}

	var req moveItemRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ItemID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Item id is required")
	}

	oldPath, err := pathFromString(req.OldPath)
	if err != nil {
		return err
	}
	newPath, err := pathFromString(req.NewPath)
	if err != nil {
		return err
	}

	if err := c.folders.MoveItem(ctx.RequestCtx(), ref, req.ItemID, oldPath, newPath); err != nil {
		return httpError(err)
	}

	c.publishFolderChange(ctx, ref)

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *FolderController) RemoveFolder(ctx fiber.Ctx) error {
	ref, err := collectionRefFromParams(ctx)
	if err != nil {
		return err
	}

	path, err := pathFromString(ctx.Query("path"))
	if err != nil {
		return err
	}

	deleter, ok := c.deleters[ref.Kind]
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown collection kind")
	}

	if err := c.folders.RemoveFolder(ctx.RequestCtx(), ref, path, deleter); err != nil {
		return httpError(err)
	}

	c.publishFolderChange(ctx, ref)

	return ctx.SendStatus(fiber.StatusNoContent)
}

// publishFolderChange broadcasts tree changes for session-owned
// collections. Journal trees are private to their user, so nothing is
// fanned out for them.
func (c *FolderController) publishFolderChange(ctx fiber.Ctx, ref domain.CollectionRef) {
	if ref.Kind == domain.CollectionJournal {
		return
	}

	publishRoomEvent(ctx, c.publisher, domain.RoomEvent{
		Type:      domain.RoomEventFolderChanged,
		SessionID: ref.OwnerID,
		Payload:   fiber.Map{"kind": ref.Kind},
	})
}
