// Package deepface is an HTTP client for a DeepFace-style biometric
// embedding service. Given an image it returns the raw (unnormalized)
// embedding vector, or reports that no single usable face was found.
package deepface

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client implements domain.EmbeddingProvider against the embedding
// service's /represent endpoint.
type Client struct {
	baseURL   string
	model     string
	detector  string
	dimension int
	client    *http.Client
}

type Config struct {
	BaseURL   string
	Model     string
	Detector  string
	Dimension int
	Timeout   time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedder base URL not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "Facenet512"
	}
	if cfg.Detector == "" {
		cfg.Detector = "opencv"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		detector:  cfg.Detector,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: t},
	}, nil
}

func (c *Client) Name() string { return "deepface" }

func (c *Client) Dimension() int { return c.dimension }

// Extract reads the image, ships it base64-encoded to the embedding
// service and returns the resulting vector. "No face detected" and
// "more than one face" both come back as found=false with no error and
// no fabricated vector.
func (c *Client) Extract(imagePath string) ([]float32, bool, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, false, fmt.Errorf("read image: %w", err)
	}

	body := map[string]any{
		"model_name":        c.model,
		"detector_backend":  c.detector,
		"enforce_detection": true,
		"img":               "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
	}
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/represent", bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("embedding service: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode >= 300 {
		// The service reports detection failures as a client error with
		// a message; that is the "no face" outcome, not a fault.
		var apiErr struct {
			Error string `json:"error"`
		}
		if resp.StatusCode < 500 && json.Unmarshal(payload, &apiErr) == nil &&
			strings.Contains(strings.ToLower(apiErr.Error), "detect") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("embedding service: %s", resp.Status)
	}

	var out struct {
		Results []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"results"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, false, fmt.Errorf("decode embedding response: %w", err)
	}
	// Exactly one face is usable for identity matching; zero or several
	// are both the ambiguous outcome.
	if len(out.Results) != 1 {
		return nil, false, nil
	}
	vec := out.Results[0].Embedding
	if len(vec) == 0 {
		return nil, false, nil
	}
	if c.dimension > 0 && len(vec) != c.dimension {
		return nil, false, fmt.Errorf("embedding has dimension %d, expected %d", len(vec), c.dimension)
	}
	return vec, true, nil
}
