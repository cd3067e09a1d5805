// Package milvus implements the remote index backend as a minimal REST
// client for the Milvus v2 HTTP API. It creates the collection with an
// explicit field schema and an HNSW/COSINE index on first use, and
// loads the collection into serving memory before any search.
package milvus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"facematch/internal/domain"
)

const (
	hnswM               = 16
	hnswEfConstruction  = 200
	searchEf            = 200
	maxNameLength       = 100
	maxRegistrationLen  = 50
	vectorField         = "embedding"
	registrationField   = "registration_number"
	defaultTimeout      = 15 * time.Second
	collectionsEndpoint = "/v2/vectordb/collections/"
	entitiesEndpoint    = "/v2/vectordb/entities/"
)

type Config struct {
	Host       string
	Port       int
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Backend talks to a Milvus cluster over its HTTP API.
type Backend struct {
	baseURL    string
	collection string
	dimension  int
	client     *http.Client
}

func New(cfg Config) *Backend {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Backend{
		baseURL:    fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates collection, schema and ANN index if the
// collection does not yet exist, then loads it into serving memory.
// Loading is idempotent but required before the first search.
func (b *Backend) EnsureCollection() error {
	exists, err := b.Exists()
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		if err := b.createCollection(); err != nil {
			return fmt.Errorf("create collection %s: %w", b.collection, err)
		}
	}
	if err := b.load(); err != nil {
		return fmt.Errorf("load collection %s: %w", b.collection, err)
	}
	return nil
}

func (b *Backend) createCollection() error {
	body := map[string]any{
		"collectionName": b.collection,
		"schema": map[string]any{
			"autoId":             true,
			"enableDynamicField": false,
			"fields": []map[string]any{
				{"fieldName": "id", "dataType": "Int64", "isPrimary": true},
				{"fieldName": vectorField, "dataType": "FloatVector",
					"elementTypeParams": map[string]any{"dim": strconv.Itoa(b.dimension)}},
				{"fieldName": "name", "dataType": "VarChar",
					"elementTypeParams": map[string]any{"max_length": strconv.Itoa(maxNameLength)}},
				{"fieldName": registrationField, "dataType": "VarChar",
					"elementTypeParams": map[string]any{"max_length": strconv.Itoa(maxRegistrationLen)}},
			},
		},
		"indexParams": []map[string]any{
			{
				"fieldName":  vectorField,
				"indexName":  vectorField + "_index",
				"metricType": "COSINE",
				"params": map[string]any{
					"index_type":     "HNSW",
					"M":              strconv.Itoa(hnswM),
					"efConstruction": strconv.Itoa(hnswEfConstruction),
				},
			},
		},
	}
	_, err := b.call(collectionsEndpoint+"create", body)
	return err
}

func (b *Backend) load() error {
	_, err := b.call(collectionsEndpoint+"load", map[string]any{"collectionName": b.collection})
	return err
}

func (b *Backend) Insert(rec domain.FaceRecord) error {
	if len(rec.Vector) != b.dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", b.dimension, len(rec.Vector))
	}
	body := map[string]any{
		"collectionName": b.collection,
		"data": []map[string]any{{
			vectorField:       rec.Vector,
			"name":            rec.Name,
			registrationField: rec.RegistrationNumber,
		}},
	}
	if _, err := b.call(entitiesEndpoint+"insert", body); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (b *Backend) Search(vector []float32, limit int) ([]domain.RawHit, error) {
	if len(vector) != b.dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", b.dimension, len(vector))
	}
	body := map[string]any{
		"collectionName": b.collection,
		"data":           [][]float32{vector},
		"annsField":      vectorField,
		"limit":          limit,
		"outputFields":   []string{"name", registrationField},
		"searchParams": map[string]any{
			"metricType": "COSINE",
			"params":     map[string]any{"ef": strconv.Itoa(searchEf)},
		},
	}
	data, err := b.call(entitiesEndpoint+"search", body)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var rows []struct {
		Distance           float64 `json:"distance"`
		Name               string  `json:"name"`
		RegistrationNumber string  `json:"registration_number"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	hits := make([]domain.RawHit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, domain.RawHit{
			Source:             domain.SourceRemote,
			Name:               r.Name,
			RegistrationNumber: r.RegistrationNumber,
			Distance:           r.Distance,
		})
	}
	return hits, nil
}

// Count reads the collection row count. Some server versions report it
// as a string, so it is decoded as a json.Number.
func (b *Backend) Count() (int64, error) {
	data, err := b.call(collectionsEndpoint+"get_stats", map[string]any{"collectionName": b.collection})
	if err != nil {
		return 0, fmt.Errorf("collection stats: %w", err)
	}
	var stats struct {
		RowCount json.Number `json:"rowCount"`
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return 0, fmt.Errorf("decode stats: %w", err)
	}
	n, err := stats.RowCount.Int64()
	if err != nil {
		return 0, fmt.Errorf("parse row count %q: %w", stats.RowCount, err)
	}
	return n, nil
}

func (b *Backend) Exists() (bool, error) {
	data, err := b.call(collectionsEndpoint+"has", map[string]any{"collectionName": b.collection})
	if err != nil {
		return false, err
	}
	var out struct {
		Has bool `json:"has"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return false, fmt.Errorf("decode has response: %w", err)
	}
	return out.Has, nil
}

// Drop releases the collection from serving memory, then deletes it.
// A release failure is not fatal: the drop still proceeds.
func (b *Backend) Drop() error {
	_, _ = b.call(collectionsEndpoint+"release", map[string]any{"collectionName": b.collection})
	if _, err := b.call(collectionsEndpoint+"drop", map[string]any{"collectionName": b.collection}); err != nil {
		return fmt.Errorf("drop collection %s: %w", b.collection, err)
	}
	return nil
}

func (b *Backend) Close() error { return nil }

// call POSTs a JSON body and returns the "data" payload. Both transport
// failures and non-zero API codes are surfaced as errors.
func (b *Backend) call(path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("milvus POST %s failed: %s", path, resp.Status)
	}
	var out struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode milvus response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("milvus POST %s failed: code %d: %s", path, out.Code, out.Message)
	}
	return out.Data, nil
}
