package deepface

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "face.jpg")
	if err := os.WriteFile(path, []byte("not a real jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, Model: "Facenet512", Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestExtractReturnsVector(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/represent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	})

	vec, found, err := c.Extract(writeImage(t))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !found {
		t.Fatal("expected a face")
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vec))
	}
}

func TestExtractNoFaceIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": "Face could not be detected in the given image",
		})
	})

	vec, found, err := c.Extract(writeImage(t))
	if err != nil {
		t.Fatalf("no-face must not be an error, got %v", err)
	}
	if found || vec != nil {
		t.Error("no vector may be fabricated without a face")
	}
}

func TestExtractAmbiguousFaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}},
				{"embedding": []float32{0.4, 0.5, 0.6}},
			},
		})
	})

	_, found, err := c.Extract(writeImage(t))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if found {
		t.Error("multiple faces are the ambiguous outcome, not a match")
	}
}

func TestExtractDimensionMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"embedding": []float32{0.1, 0.2}}},
		})
	})

	if _, _, err := c.Extract(writeImage(t)); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestExtractServerFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, _, err := c.Extract(writeImage(t)); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestExtractMissingImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, _, err := c.Extract(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for unreadable image")
	}
}
