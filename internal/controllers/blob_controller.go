package controllers

import (
	"bytes"

	"github.com/questdeck/questdeck/internal/domain"

	"github.com/gofiber/fiber/v3"
)

type BlobController struct {
	blobs domain.BlobManager
}

type BlobControllerDependencies struct {
	BlobManager domain.BlobManager
}

func NewBlobController(deps BlobControllerDependencies) *BlobController {
	return &BlobController{
		blobs: deps.BlobManager,
	}
}

func (c *BlobController) UploadBlob(ctx fiber.Ctx) error {
	blobID := ctx.Params("blobID")

	body := ctx.Body()
	if len(body) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Blob body is required")
	}

	if err := c.blobs.Upload(ctx.RequestCtx(), blobID, bytes.NewReader(body)); err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"blob_id": blobID})
}

func (c *BlobController) DownloadBlob(ctx fiber.Ctx) error {
	rc, err := c.blobs.Download(ctx.RequestCtx(), ctx.Params("blobID"))
	if err != nil {
		return httpError(err)
	}

	return ctx.SendStream(rc)
}

func (c *BlobController) StatBlob(ctx fiber.Ctx) error {
	stat, err := c.blobs.Stat(ctx.RequestCtx(), ctx.Params("blobID"))
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(stat)
}

type adjustRefCountRequest struct {
	Delta int `json:"delta"`
}

// AdjustRefCount lets a second owner attach to an already-uploaded
// blob, or an owner release its claim.
func (c *BlobController) AdjustRefCount(ctx fiber.Ctx) error {
	var req adjustRefCountRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := c.blobs.AdjustRefCount(ctx.RequestCtx(), ctx.Params("blobID"), req.Delta); err != nil {
		return httpError(err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}
