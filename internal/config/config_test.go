package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, "Facenet512", cfg.FaceModel)
	assert.Equal(t, 0.95, cfg.SimilarityThreshold)
	assert.Equal(t, 5, cfg.TopKResults)
	assert.Equal(t, 19530, cfg.Port)
}

func TestEnvironmentOverridesFileAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: local\nface_model: Facenet\nsimilarity_threshold: 0.8\n"), 0644))

	t.Setenv("MILVUS_MODE", "REMOTE")
	t.Setenv("MILVUS_HOST", "milvus.internal")
	t.Setenv("MILVUS_PORT", "19531")
	t.Setenv("SIMILARITY_THRESHOLD", "0.9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, cfg.Mode, "env overrides file; mode is case-normalized")
	assert.Equal(t, "milvus.internal", cfg.Host)
	assert.Equal(t, 19531, cfg.Port)
	assert.Equal(t, 0.9, cfg.SimilarityThreshold)
	assert.Equal(t, "Facenet", cfg.FaceModel, "file value survives where env is unset")
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, cfg.Mode)
}

func TestInvalidModeRejected(t *testing.T) {
	t.Setenv("MILVUS_MODE", "clustered")
	_, err := Load("")
	assert.Error(t, err)
}

func TestInvalidThresholdRejected(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "1.5")
	_, err := Load("")
	assert.Error(t, err)
}

func TestModelDimensions(t *testing.T) {
	tests := []struct {
		model string
		dim   int
	}{
		{"Facenet", 128},
		{"Facenet512", 512},
		{"VGG-Face", 2622},
		{"OpenFace", 128},
		{"DeepFace", 4096},
		{"ArcFace", 512},
		{"SFace", 128},
		{"SomethingNew", 512},
	}
	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.FaceModel = tt.model
		assert.Equal(t, tt.dim, cfg.Dimension(), "model %s", tt.model)
	}
}

func TestCollectionNameDerivation(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "face_embeddings_Facenet512", cfg.CollectionName())
	cfg.FaceModel = "ArcFace"
	assert.Equal(t, "face_embeddings_ArcFace", cfg.CollectionName())
}
