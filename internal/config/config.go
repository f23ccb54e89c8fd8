// Package config loads application settings from the environment (populated
// from .env in main) and optional JSON files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BartekS5/snapetl/pkg/cloud"
	"github.com/BartekS5/snapetl/pkg/database"
	"github.com/BartekS5/snapetl/pkg/models"
)

// Config holds all configuration for the application.
type Config struct {
	IngestionBucket  string
	ProcessingBucket string

	SQLDriver     string
	SQLConnString string

	AWS          cloud.Options
	SecretPrefix string

	MongoConnString string
	MongoDatabase   string
}

// LoadConfig reads every setting. Requirements are checked per command with
// the Require* methods, so a processing run does not need database
// credentials.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		IngestionBucket:  os.Getenv("INGESTION_BUCKET_NAME"),
		ProcessingBucket: os.Getenv("PROCESSING_BUCKET_NAME"),
		SQLDriver:        getenv("SQL_DRIVER", database.DriverPostgres),
		SQLConnString:    os.Getenv("SQL_CONNECTION_STRING"),
		AWS: cloud.Options{
			Region:   os.Getenv("AWS_REGION"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
		},
		SecretPrefix:    getenv("WATERMARK_SECRET_PREFIX", "snapetl/"),
		MongoConnString: os.Getenv("MONGO_CONNECTION_STRING"),
		MongoDatabase:   getenv("MONGO_DATABASE", "warehouse"),
	}

	if v := os.Getenv("S3_FORCE_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("S3_FORCE_PATH_STYLE: %w", err)
		}
		cfg.AWS.ForcePathStyle = b
	}
	return cfg, nil
}

// RequireIngestion checks the settings needed to extract from the source
// database.
func (c *Config) RequireIngestion() error {
	if err := require("INGESTION_BUCKET_NAME", c.IngestionBucket); err != nil {
		return err
	}
	return c.RequireSQL()
}

// RequireSQL checks the source database connection string alone, for local
// runs that keep snapshots on disk.
func (c *Config) RequireSQL() error {
	return require("SQL_CONNECTION_STRING", c.SQLConnString)
}

func (c *Config) RequireMongo() error {
	return require("MONGO_CONNECTION_STRING", c.MongoConnString)
}

// RequireProcessing checks the settings needed to build the star schema.
func (c *Config) RequireProcessing() error {
	if err := require("INGESTION_BUCKET_NAME", c.IngestionBucket); err != nil {
		return err
	}
	return require("PROCESSING_BUCKET_NAME", c.ProcessingBucket)
}

func require(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s environment variable not set: %w", name, models.ErrMissingConfig)
	}
	return nil
}

func getenv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
