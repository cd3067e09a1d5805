// Package matcher is the similarity-matching engine: it validates and
// ingests embeddings, dispatches nearest-neighbor queries to the active
// index backend, normalizes the backend-native hit semantics into one
// canonical (similarity, distance) pair, and returns the
// threshold-filtered, ranked result set.
package matcher

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"facematch/internal/domain"
	"facematch/internal/index"
)

var (
	// ErrDimensionMismatch rejects vectors of the wrong length before
	// they reach the backend.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrConfirmationRequired guards the only deletion path. The message
	// tells the caller exactly what to pass.
	ErrConfirmationRequired = errors.New(
		"dropping the collection requires confirm=true: the operation is irreversible and removes all records and indexes")
)

type Options struct {
	CollectionName string
	Mode           string
	Dimension      int
	Threshold      float64
	DefaultTopK    int
	Logger         *slog.Logger
}

// Engine is constructed once per process and reused for its lifetime.
// It holds no cross-request mutable state beyond the backend itself.
type Engine struct {
	backend     index.Backend
	log         *slog.Logger
	collection  string
	mode        string
	dimension   int
	threshold   float64
	defaultTopK int
}

// New wires the engine to its backend and ensures the collection is
// ready to serve. An initialization failure propagates: the service
// cannot run without its index.
func New(backend index.Backend, opts Options) (*Engine, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", opts.Dimension)
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := &Engine{
		backend:     backend,
		log:         opts.Logger,
		collection:  opts.CollectionName,
		mode:        opts.Mode,
		dimension:   opts.Dimension,
		threshold:   opts.Threshold,
		defaultTopK: opts.DefaultTopK,
	}
	if err := backend.EnsureCollection(); err != nil {
		return nil, fmt.Errorf("initialize index backend: %w", err)
	}
	e.log.Info("matching engine ready",
		"collection", e.collection, "mode", e.mode,
		"dimension", e.dimension, "threshold", e.threshold)
	return e, nil
}

// Insert stores one raw embedding with its identity. The vector is not
// pre-normalized here; the backend's cosine metric normalizes
// internally. Failures are reported as false rather than raised, so
// batch callers can decide per record whether to retry or abort.
func (e *Engine) Insert(vector []float32, name, registrationNumber string) bool {
	if len(vector) != e.dimension {
		e.log.Error("insert rejected",
			"error", ErrDimensionMismatch, "expected", e.dimension, "got", len(vector))
		return false
	}
	rec, err := domain.NewFaceRecord(vector, name, registrationNumber)
	if err != nil {
		e.log.Error("insert rejected", "error", err)
		return false
	}
	if err := e.backend.Insert(rec); err != nil {
		e.log.Error("insert failed", "name", rec.Name, "error", err)
		return false
	}
	e.log.Info("embedding inserted", "name", rec.Name, "registration_number", rec.RegistrationNumber)
	return true
}

// Search returns the ranked candidates clearing the similarity
// threshold, most similar first. Non-positive topK falls back to the
// configured default. A backend failure degrades to an empty result set
// with the error surfaced alongside it.
func (e *Engine) Search(vector []float32, topK int) ([]domain.SearchResult, error) {
	if len(vector) != e.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, e.dimension, len(vector))
	}
	if topK <= 0 {
		topK = e.defaultTopK
	}
	hits, err := e.backend.Search(vector, topK)
	if err != nil {
		e.log.Error("index search failed", "error", err)
		return []domain.SearchResult{}, fmt.Errorf("index search: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, e.normalize(h))
	}
	return filterAndRank(results, e.threshold), nil
}

// Describe returns a best-effort snapshot. A backend that cannot report
// its record count yields the explicit unavailable sentinel instead of
// failing the call.
func (e *Engine) Describe() domain.CollectionInfo {
	info := domain.CollectionInfo{
		CollectionName: e.collection,
		Dimension:      e.dimension,
		Mode:           e.mode,
		MetricType:     "COSINE",
		Threshold:      e.threshold,
		TotalRecords:   domain.CountUnavailable,
	}
	exists, err := e.backend.Exists()
	if err != nil {
		e.log.Warn("collection existence check failed", "error", err)
		return info
	}
	info.Exists = exists
	if !exists {
		info.TotalRecords = 0
		return info
	}
	if n, err := e.backend.Count(); err != nil {
		e.log.Warn("record count unavailable", "error", err)
	} else {
		info.TotalRecords = n
	}
	return info
}

// DropAndRecreate deletes the collection and rebuilds it empty. It
// fails closed without explicit confirmation and is audited before and
// after with record counts: this is the only deletion path.
func (e *Engine) DropAndRecreate(confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}
	before := e.countBestEffort()
	e.log.Warn("dropping collection, all records will be lost",
		"collection", e.collection, "records_before", before)
	if err := e.backend.Drop(); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	if err := e.backend.EnsureCollection(); err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	e.log.Warn("collection recreated",
		"collection", e.collection, "records_before", before, "records_after", e.countBestEffort())
	return nil
}

func (e *Engine) countBestEffort() int64 {
	n, err := e.backend.Count()
	if err != nil {
		return domain.CountUnavailable
	}
	return n
}

// filterAndRank drops hits below the threshold and orders survivors by
// similarity descending. The sort is stable, so ties keep the backend's
// order. Nothing clearing the threshold is an empty slice, not an
// error.
func filterAndRank(results []domain.SearchResult, threshold float64) []domain.SearchResult {
	ranked := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.SimilarityScore >= threshold {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SimilarityScore > ranked[j].SimilarityScore
	})
	return ranked
}
