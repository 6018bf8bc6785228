package infra

import (
	"os"
	"strconv"
	"time"
)

// Config represents worker configuration loaded from environment variables.
// The bucket settings are optional; leaving the endpoint unset disables all
// upload and presign behavior without error.
type Config struct {
	AppEnv string
	Port   string

	// VolumePath is probed at startup; when mounted it becomes the storage
	// root, otherwise FallbackStoragePath is used and outputs do not survive
	// the container.
	VolumePath          string
	FallbackStoragePath string
	ScratchPath         string

	ModelDir  string
	ScriptDir string
	PythonBin string

	BucketEndpointURL     string
	BucketAccessKeyID     string
	BucketSecretAccessKey string
	BucketName            string

	// GenerateTimeout bounds one generator invocation. Zero disables the
	// bound and a hung generator holds the worker.
	GenerateTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		VolumePath:            getEnv("VOLUME_PATH", "/runpod-volume"),
		FallbackStoragePath:   getEnv("FALLBACK_STORAGE_PATH", "/tmp"),
		ScratchPath:           getEnv("SCRATCH_PATH", os.TempDir()),
		ModelDir:              getEnv("MODEL_DIR", "/workspace/models"),
		ScriptDir:             getEnv("INFINITETALK_DIR", "/workspace/InfiniteTalk"),
		PythonBin:             getEnv("PYTHON_BIN", "python"),
		BucketEndpointURL:     os.Getenv("BUCKET_ENDPOINT_URL"),
		BucketAccessKeyID:     os.Getenv("BUCKET_ACCESS_KEY_ID"),
		BucketSecretAccessKey: os.Getenv("BUCKET_SECRET_ACCESS_KEY"),
		BucketName:            getEnv("BUCKET_NAME", "infinitetalk-outputs"),
		GenerateTimeout:       time.Second * time.Duration(getEnvInt("GENERATE_TIMEOUT_SECONDS", 0)),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// The generate action answers synchronously after a long render, so
		// the write timeout must cover the full client wait budget.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 1800)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}
	return cfg, nil
}

// BucketConfigured reports whether object-store publishing is enabled.
func (c *Config) BucketConfigured() bool {
	return c.BucketEndpointURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
