// Package config reads pipeline settings from the environment.
package config

import (
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/redact"
)

// DefaultMaxUploadSize caps dev-server uploads at 10 MiB.
const DefaultMaxUploadSize = 10 << 20

// Config holds every tunable the pipeline reads from the environment.
type Config struct {
	// BlurRadius is the box blur radius in pixels (BLUR_RADIUS).
	BlurRadius int
	// MinConfidence drops Rekognition detections below this percentage
	// (DETECT_MIN_CONFIDENCE). Zero keeps everything.
	MinConfidence float32
	// BucketName is the source bucket for direct dev-server reads
	// (S3_BUCKET_NAME).
	BucketName string
	// ListenAddr is the dev server bind address (LISTEN_ADDR).
	ListenAddr string
	// MaxUploadSize caps dev-server multipart uploads in bytes
	// (MAX_UPLOAD_SIZE).
	MaxUploadSize int64
}

// Load reads the environment, logging and falling back on values that do
// not parse.
func Load(logger *zap.Logger) Config {
	return Config{
		BlurRadius:    int(getEnvInt(logger, "BLUR_RADIUS", redact.DefaultRadius)),
		MinConfidence: float32(getEnvFloat(logger, "DETECT_MIN_CONFIDENCE", 0)),
		BucketName:    os.Getenv("S3_BUCKET_NAME"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		MaxUploadSize: getEnvInt(logger, "MAX_UPLOAD_SIZE", DefaultMaxUploadSize),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(logger *zap.Logger, key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		logger.Warn("invalid integer in environment, using fallback",
			zap.String("key", key), zap.String("value", raw), zap.Int64("fallback", fallback))
		return fallback
	}
	return value
}

func getEnvFloat(logger *zap.Logger, key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		logger.Warn("invalid number in environment, using fallback",
			zap.String("key", key), zap.String("value", raw), zap.Float64("fallback", fallback))
		return fallback
	}
	return value
}
