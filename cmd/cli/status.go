package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/questdeck/questdeck/internal/initialization"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check connectivity to the configured backends",
		Long:  `Load the configuration and verify that MongoDB and Redis are reachable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	config, err := initialization.LoadConfig()
	if err != nil {
		fmt.Printf("❌ Configuration invalid: %v\n", err)
		return err
	}

	fmt.Println("✅ Configuration loaded")
	fmt.Printf("   Mongo database: %s\n", config.MongoDatabase)
	fmt.Printf("   Blob bucket: %s\n", config.S3Bucket)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pingMongo(ctx, config); err != nil {
		fmt.Printf("❌ MongoDB unreachable at %s: %v\n", config.MongoURI, err)
	} else {
		fmt.Printf("✅ MongoDB reachable at %s\n", config.MongoURI)
	}

	if err := pingRedis(ctx, config); err != nil {
		fmt.Printf("❌ Redis unreachable at %s: %v\n", config.RedisAddr, err)
	} else {
		fmt.Printf("✅ Redis reachable at %s\n", config.RedisAddr)
	}

	return nil
}

func pingMongo(ctx context.Context, config *initialization.Config) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	return client.Ping(ctx, readpref.Primary())
}

func pingRedis(ctx context.Context, config *initialization.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})
	defer client.Close()

	return client.Ping(ctx).Err()
}
