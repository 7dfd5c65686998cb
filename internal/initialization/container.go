package initialization

import (
	"context"
	"fmt"
	"time"

	"github.com/questdeck/questdeck/internal/controllers"
	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/managers"
	"github.com/questdeck/questdeck/internal/persistence"
	"github.com/questdeck/questdeck/internal/server"
	"github.com/questdeck/questdeck/internal/storage"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// AppDependencies holds the fully wired application along with the
// clients that need closing on shutdown.
type AppDependencies struct {
	Server      *fiber.App
	MongoClient *mongo.Client
	RedisClient *redis.Client
}

// Close releases the database and broker connections.
func (d *AppDependencies) Close(ctx context.Context) {
	if err := d.RedisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close redis client")
	}

	if err := d.MongoClient.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to disconnect from mongodb")
	}
}

// BuildAppDependencies connects to MongoDB, Redis and S3 and wires the
// managers, controllers and HTTP server together.
func BuildAppDependencies(ctx context.Context, config *Config) (*AppDependencies, error) {
	log.Info().Msg("Building application dependencies")

	mongoClient, err := connectMongo(ctx, config)
	if err != nil {
		return nil, err
	}

	redisClient, err := connectRedis(ctx, config)
	if err != nil {
		return nil, err
	}

	awsSession, err := newAWSSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	documentStore := persistence.NewMongoStore(persistence.MongoStoreDependencies{
		Database: mongoClient.Database(config.MongoDatabase),
	})

	byteStore := storage.NewS3ByteStore(storage.S3ByteStoreDependencies{
		Session: awsSession,
		Bucket:  config.S3Bucket,
	})

	folderManager := managers.NewFolderManager(managers.FolderManagerDependencies{
		DocumentStore: documentStore,
	})

	blobManager := managers.NewBlobManager(managers.BlobManagerDependencies{
		DocumentStore: documentStore,
		ByteStore:     byteStore,
	})

	sessionManager := managers.NewSessionManager(managers.SessionManagerDependencies{
		DocumentStore: documentStore,
	})

	roomEventPublisher := managers.NewRoomEventPublisher(managers.RoomEventPublisherDependencies{
		Client: redisClient,
	})

	connectionRegistry := controllers.NewConnectionRegistry()

	sessionController := controllers.NewSessionController(controllers.SessionControllerDependencies{
		SessionManager:     sessionManager,
		RoomEventPublisher: roomEventPublisher,
		ConnectionRegistry: connectionRegistry,
	})

	blueprintController := controllers.NewBlueprintController(controllers.BlueprintControllerDependencies{
		DocumentStore:      documentStore,
		FolderManager:      folderManager,
		BlobManager:        blobManager,
		RoomEventPublisher: roomEventPublisher,
	})

	sceneController := controllers.NewSceneController(controllers.SceneControllerDependencies{
		DocumentStore:      documentStore,
		FolderManager:      folderManager,
		BlobManager:        blobManager,
		SessionManager:     sessionManager,
		RoomEventPublisher: roomEventPublisher,
	})

	journalController := controllers.NewJournalController(controllers.JournalControllerDependencies{
		DocumentStore: documentStore,
		FolderManager: folderManager,
	})

	folderController := controllers.NewFolderController(controllers.FolderControllerDependencies{
		FolderManager: folderManager,
		DocumentStore: documentStore,
		ItemDeleters: map[domain.CollectionKind]domain.ItemDeleter{
			domain.CollectionBlueprints: blueprintController.DeleteItem,
			domain.CollectionScenes:     sceneController.DeleteItem,
			domain.CollectionJournal:    journalController.DeleteItem,
		},
		RoomEventPublisher: roomEventPublisher,
	})

	blobController := controllers.NewBlobController(controllers.BlobControllerDependencies{
		BlobManager: blobManager,
	})

	httpServer := server.NewHTTPServer(server.HTTPServerDependencies{
		SessionController:   sessionController,
		FolderController:    folderController,
		BlueprintController: blueprintController,
		SceneController:     sceneController,
		JournalController:   journalController,
		BlobController:      blobController,
	})

	return &AppDependencies{
		Server:      httpServer,
		MongoClient: mongoClient,
		RedisClient: redisClient,
	}, nil
}

func connectMongo(ctx context.Context, config *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info().Str("database", config.MongoDatabase).Msg("Connected to mongodb")

	return client, nil
}

func connectRedis(ctx context.Context, config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("addr", config.RedisAddr).Msg("Connected to redis")

	return client, nil
}

func newAWSSession(config *Config) (*awssession.Session, error) {
	awsConfig := aws.Config{
		Region: aws.String(config.S3Region),
	}

	if config.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	if config.S3AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.S3AccessKeyID, config.S3SecretAccessKey, "")
	}

	return awssession.NewSession(&awsConfig)
}
