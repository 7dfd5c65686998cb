package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/questdeck/questdeck/internal/initialization"
	"github.com/questdeck/questdeck/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the QuestDeck server",
		Long:  `Start the HTTP server and connect to MongoDB, Redis and the blob storage backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	return cmd
}

func runServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("version", version.GetVersion()).Msg("Starting QuestDeck server")

	config, err := initialization.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	deps, err := initialization.BuildAppDependencies(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build application dependencies")
	}

	if err := deps.Server.Listen(config.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	deps.Close(shutdownCtx)

	log.Info().Msg("QuestDeck server stopped")
	return nil
}
