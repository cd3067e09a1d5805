// Package service orchestrates the embedding provider and the matching
// engine into the register / identify operations callers use.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"facematch/internal/domain"
)

// ErrNoFace reports that the image yielded no single usable face. The
// caller gets no vector in this case, ever.
var ErrNoFace = errors.New("no face detected in image")

// maxTopK bounds how many candidates one identification may request.
const maxTopK = 20

type FaceService struct {
	provider domain.EmbeddingProvider
	engine   domain.FaceMatcher
	log      *slog.Logger
}

func NewFaceService(provider domain.EmbeddingProvider, engine domain.FaceMatcher, log *slog.Logger) *FaceService {
	if log == nil {
		log = slog.Default()
	}
	return &FaceService{provider: provider, engine: engine, log: log}
}

// RegisterFace extracts the embedding for the image and enrolls it
// under the given identity. All-or-nothing per record.
func (s *FaceService) RegisterFace(imagePath, name, registrationNumber string) error {
	vec, found, err := s.provider.Extract(imagePath)
	if err != nil {
		return fmt.Errorf("extract embedding: %w", err)
	}
	if !found {
		return ErrNoFace
	}
	if !s.engine.Insert(vec, name, registrationNumber) {
		return fmt.Errorf("embedding for %q could not be stored", name)
	}
	s.log.Info("face registered", "name", name, "registration_number", registrationNumber)
	return nil
}

// IdentifyFace answers "who is this face" with the ranked candidates
// clearing the similarity threshold. topK is clamped to [1, 20].
func (s *FaceService) IdentifyFace(imagePath string, topK int) ([]domain.SearchResult, error) {
	if topK > maxTopK {
		topK = maxTopK
	}
	vec, found, err := s.provider.Extract(imagePath)
	if err != nil {
		return nil, fmt.Errorf("extract embedding: %w", err)
	}
	if !found {
		return nil, ErrNoFace
	}
	return s.engine.Search(vec, topK)
}

// DatabaseInfo exposes the collection snapshot.
func (s *FaceService) DatabaseInfo() domain.CollectionInfo {
	return s.engine.Describe()
}

// Reset drops and recreates the collection. Fails closed unless
// confirmed.
func (s *FaceService) Reset(confirm bool) error {
	return s.engine.DropAndRecreate(confirm)
}
