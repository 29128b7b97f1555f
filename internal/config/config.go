package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // QUORUM_DATABASE_URL (required)
	HTTPAddr    string // QUORUM_HTTP_ADDR (default ":8080")
	NATSURL     string // QUORUM_NATS_URL (optional, empty = no events)
	AuthToken   string // QUORUM_AUTH_TOKEN (optional, empty = auth disabled)

	// Compliance export settings
	ExportInterval   time.Duration // QUORUM_EXPORT_INTERVAL (default 10m; 0 = disabled)
	ExportS3Bucket   string        // QUORUM_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // QUORUM_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // QUORUM_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // QUORUM_EXPORT_S3_KEY (default "quorum/export.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("QUORUM_DATABASE_URL"),
		HTTPAddr:         envOrDefault("QUORUM_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("QUORUM_NATS_URL"),
		AuthToken:        os.Getenv("QUORUM_AUTH_TOKEN"),
		ExportS3Bucket:   os.Getenv("QUORUM_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("QUORUM_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("QUORUM_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("QUORUM_EXPORT_S3_KEY", "quorum/export.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("QUORUM_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("QUORUM_EXPORT_INTERVAL", "10m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("QUORUM_EXPORT_INTERVAL: %w", err)
		}
		c.ExportInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
