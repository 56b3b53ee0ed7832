package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"
)

const (
	DefaultModelURL     = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-2"
	DefaultImageURLPath = "data.0.url"
)

type Config struct {
	Port          string
	APIKey        string
	ModelURL      string
	ImageURLPath  string
	AllowedOrigin string
	StaticDir     string
	SinkURL       string
	SourceID      string
	EventType     string
}

// Load reads the configuration from the environment, after merging in a
// .env file from the working directory when one exists. Variables already
// set in the environment win over the file.
func Load() (Config, error) {
	return load(".env")
}

func load(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		klog.InfoS("No .env file loaded, using process environment", "file", envFile)
	}

	cfg := Config{
		Port:          getEnv("PORT", "3000"),
		APIKey:        getEnv("HUGGINGFACE_API_KEY", ""),
		ModelURL:      getEnv("HUGGINGFACE_MODEL_URL", DefaultModelURL),
		ImageURLPath:  getEnv("IMAGE_URL_PATH", DefaultImageURLPath),
		AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:8080"),
		StaticDir:     getEnv("STATIC_DIR", "public"),
		SinkURL:       getEnv("K_SINK", ""),
		SourceID:      getEnv("SOURCE_ID", "image-generation/server"),
		EventType:     getEnv("EVENT_TYPE", "image.generation.completed"),
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	// The key is only checked for presence; a bad key shows up as an
	// upstream authentication failure on first use.
	klog.InfoS("Upstream credential", "configured", cfg.APIKey != "")
	if cfg.APIKey == "" {
		klog.Warning("HUGGINGFACE_API_KEY is not set, upstream calls will be unauthenticated")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
