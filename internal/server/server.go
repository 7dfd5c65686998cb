package server

import (
	"time"

	"github.com/questdeck/questdeck/internal/controllers"
	"github.com/questdeck/questdeck/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	SessionController   *controllers.SessionController
	FolderController    *controllers.FolderController
	BlueprintController *controllers.BlueprintController
	SceneController     *controllers.SceneController
	JournalController   *controllers.JournalController
	BlobController      *controllers.BlobController
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "questdeck",
	})

	// Add basic middleware
	router.Use(cors.New())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "questdeck",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	sessions := router.Group("/sessions")
	sessions.Post("/", deps.SessionController.OpenSession)

	session := sessions.Group("/:sessionID")
	session.Get("/", deps.SessionController.GetSession)
	session.Post("/join", deps.SessionController.JoinSession)
	session.Post("/leave", deps.SessionController.LeaveSession)
	session.Post("/disconnect", deps.SessionController.Disconnect)
	session.Put("/state", deps.SessionController.SetState)
	session.Put("/pause", deps.SessionController.SetPaused)

	session.Post("/blueprints", deps.BlueprintController.CreateBlueprint)
	session.Get("/blueprints/:blueprintID", deps.BlueprintController.GetBlueprint)
	session.Put("/blueprints/:blueprintID/image", deps.BlueprintController.UpdateBlueprintImage)
	session.Delete("/blueprints/:blueprintID", deps.BlueprintController.DeleteBlueprint)

	session.Post("/scenes", deps.SceneController.CreateScene)
	session.Get("/scenes/:sceneID", deps.SceneController.GetScene)
	session.Post("/scenes/:sceneID/activate", deps.SceneController.ActivateScene)
	session.Delete("/scenes/:sceneID", deps.SceneController.DeleteScene)

	journal := router.Group("/users/:userID/journal")
	journal.Post("/entries", deps.JournalController.CreateEntry)
	journal.Get("/entries/:entryID", deps.JournalController.GetEntry)
	journal.Put("/entries/:entryID", deps.JournalController.UpdateEntry)
	journal.Delete("/entries/:entryID", deps.JournalController.DeleteEntry)

	folders := router.Group("/collections/:kind/:ownerID/folders")
	folders.Post("/", deps.FolderController.CreateFolder)
	folders.Get("/", deps.FolderController.GetFolder)
	folders.Patch("/rename", deps.FolderController.RenameFolder)
	folders.Post("/move", deps.FolderController.MoveFolder)
	folders.Post("/move-item", deps.FolderController.MoveItem)
	folders.Delete("/", deps.FolderController.RemoveFolder)

	blobs := router.Group("/blobs/:blobID")
	blobs.Post("/", deps.BlobController.UploadBlob)
	blobs.Get("/", deps.BlobController.DownloadBlob)
	blobs.Get("/stat", deps.BlobController.StatBlob)
	blobs.Post("/refcount", deps.BlobController.AdjustRefCount)

	return router
}
