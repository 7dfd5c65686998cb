package initialization

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all server configuration
type Config struct {
	// HTTP server settings
	HTTPAddress string

	// MongoDB settings
	MongoURI      string
	MongoDatabase string

	// Redis settings
	RedisAddr     string
	RedisPassword string

	// S3 blob storage settings
	S3Region          string
	S3Bucket          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":       "HTTP_ADDRESS",
		"MongoURI":          "MONGO_URI",
		"MongoDatabase":     "MONGO_DATABASE",
		"RedisAddr":         "REDIS_ADDR",
		"RedisPassword":     "REDIS_PASSWORD",
		"S3Region":          "S3_REGION",
		"S3Bucket":          "S3_BUCKET",
		"S3Endpoint":        "S3_ENDPOINT",
		"S3AccessKeyID":     "S3_ACCESS_KEY_ID",
		"S3SecretAccessKey": "S3_SECRET_ACCESS_KEY",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("questdeck_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.questdeck")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("MongoURI", "mongodb://localhost:27017")
	v.SetDefault("MongoDatabase", "questdeck")
	v.SetDefault("RedisAddr", "localhost:6379")
	v.SetDefault("S3Region", "us-east-1")
}

func validateConfig(config *Config) error {
	var missingVars []string

	if config.S3Bucket == "" {
		missingVars = append(missingVars, "S3_BUCKET")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missingVars, ", "))
	}

	return nil
}
