package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config holds the full engine configuration. Values come from an
// optional YAML file with environment variables taking precedence,
// mirroring how the service is deployed (.env + container environment).
type Config struct {
	// Mode selects the index backend: "local" or "remote".
	Mode string `yaml:"mode"`

	// LocalPath is the embedded index database file (local mode).
	LocalPath string `yaml:"local_path"`

	// Host and Port locate the clustered index service (remote mode).
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// FaceModel names the embedding model. It determines both the
	// embedding dimension and the collection name.
	FaceModel    string `yaml:"face_model"`
	FaceDetector string `yaml:"face_detector"`

	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	TopKResults         int     `yaml:"top_k_results"`

	// EmbedderURL is the base URL of the embedding extraction service.
	EmbedderURL string `yaml:"embedder_url"`

	LogLevel string `yaml:"log_level"`
}

// modelDimensions maps embedding model names to their vector length.
var modelDimensions = map[string]int{
	"Facenet":    128,
	"Facenet512": 512,
	"VGG-Face":   2622,
	"OpenFace":   128,
	"DeepFace":   4096,
	"ArcFace":    512,
	"SFace":      128,
}

// Load reads a config from the given path, applies defaults and then
// environment overrides. A missing file is not an error; the defaults
// plus environment are used.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Mode:                ModeLocal,
		LocalPath:           "data/milvus_faces.db",
		Host:                "localhost",
		Port:                19530,
		FaceModel:           "Facenet512",
		FaceDetector:        "opencv",
		SimilarityThreshold: 0.95,
		TopKResults:         5,
		EmbedderURL:         "http://localhost:8001",
		LogLevel:            "INFO",
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Mode, "MILVUS_MODE")
	setString(&cfg.LocalPath, "MILVUS_LOCAL_PATH")
	setString(&cfg.Host, "MILVUS_HOST")
	setInt(&cfg.Port, "MILVUS_PORT")
	setString(&cfg.FaceModel, "FACE_MODEL")
	setString(&cfg.FaceDetector, "FACE_DETECTOR")
	setFloat(&cfg.SimilarityThreshold, "SIMILARITY_THRESHOLD")
	setInt(&cfg.TopKResults, "TOP_K_RESULTS")
	setString(&cfg.EmbedderURL, "EMBEDDER_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	cfg.Mode = strings.ToLower(cfg.Mode)
}

func (c *Config) validate() error {
	if c.Mode != ModeLocal && c.Mode != ModeRemote {
		return fmt.Errorf("invalid mode %q: must be %q or %q", c.Mode, ModeLocal, ModeRemote)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %v out of range [0,1]", c.SimilarityThreshold)
	}
	if c.TopKResults <= 0 {
		return fmt.Errorf("top_k_results must be positive, got %d", c.TopKResults)
	}
	return nil
}

// Dimension returns the embedding dimension for the configured model,
// defaulting to 512 for unknown models.
func (c *Config) Dimension() int {
	if d, ok := modelDimensions[c.FaceModel]; ok {
		return d
	}
	return 512
}

// CollectionName derives the collection name from the model, so each
// model's vectors live in their own collection.
func (c *Config) CollectionName() string {
	return "face_embeddings_" + c.FaceModel
}

// IsLocal reports whether the embedded backend is selected.
func (c *Config) IsLocal() bool { return c.Mode == ModeLocal }

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
