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

const journalCollection = "journal_entries"

// JournalController manages per-user journal trees. Journals are
// private, so no room events are published.
type JournalController struct {
	documents persistence.DocumentStore
	folders   domain.FolderManager
}

type JournalControllerDependencies struct {
	DocumentStore persistence.DocumentStore
	FolderManager domain.FolderManager
}

func NewJournalController(deps JournalControllerDependencies) *JournalController {
	return &JournalController{
		documents: deps.DocumentStore,
		folders:   deps.FolderManager,
	}
}

type createJournalEntryRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Path  string `json:"path"`
}

func (c *JournalController) CreateEntry(ctx fiber.Ctx) error {
	var req createJournalEntryRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Entry title is required")
	}

	userID := ctx.Params("userID")

	path, err := pathFromString(req.Path)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	entry := domain.JournalEntry{
		ID:        xid.New().String(),
		OwnerID:   userID,
		Title:     req.Title,
		Text:      req.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.documents.Create(ctx.RequestCtx(), journalCollection, entry); err != nil {
		return httpError(err)
	}

	ref := domain.CollectionRef{Kind: domain.CollectionJournal, OwnerID: userID}
	if err := c.folders.AddItem(ctx.RequestCtx(), ref, entry.ID, path); err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(entry)
}

func (c *JournalController) GetEntry(ctx fiber.Ctx) error {
	var entry domain.JournalEntry
	if err := c.documents.FindByID(ctx.RequestCtx(), journalCollection, ctx.Params("entryID"), &entry); err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusOK).JSON(entry)
}

type updateJournalEntryRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (c *JournalController) UpdateEntry(ctx fiber.Ctx) error {
	var req updateJournalEntryRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ops := []persistence.FieldOp{
		persistence.Set(persistence.FieldPath{"updated_at"}, time.Now().UTC()),
	}
	if req.Title != "" {
		ops = append(ops, persistence.Set(persistence.FieldPath{"title"}, req.Title))
	}
	ops = append(ops, persistence.Set(persistence.FieldPath{"text"}, req.Text))

	err := c.documents.UpdateByID(ctx.RequestCtx(), journalCollection, ctx.Params("entryID"), ops...)
	if err != nil {
		return httpError(err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *JournalController) DeleteEntry(ctx fiber.Ctx) error {
	entryID := ctx.Params("entryID")
	userID := ctx.Params("userID")

	path, err := pathFromString(ctx.Query("path"))
	if err != nil {
		return err
	}

	if err := c.DeleteItem(ctx.RequestCtx(), entryID); err != nil {
		return httpError(err)
	}

	ref := domain.CollectionRef{Kind: domain.CollectionJournal, OwnerID: userID}
	if err := c.folders.RemoveItem(ctx.RequestCtx(), ref, entryID, path); err != nil {
		return httpError(err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// DeleteItem is the journal entity's delete path, also invoked by
// folder cascades.
func (c *JournalController) DeleteItem(ctx context.Context, entryID string) error {
	err := c.documents.DeleteByID(ctx, journalCollection, entryID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}

	return nil
}
