package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// CountUnavailable marks a record count the backend could not report.
// Describe calls must degrade to this sentinel instead of failing.
const CountUnavailable int64 = -1

// FaceRecord is one enrolled identity. The vector is stored raw
// (unnormalized); the index backend applies cosine normalization
// internally at index and query time. Records are immutable once
// inserted and can only be removed by dropping the whole collection.
type FaceRecord struct {
	Vector             []float32 `json:"-"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registration_number"`
}

// SearchResult is one ranked candidate in canonical form:
// SimilarityScore in [0,1] (1.0 = identical) and Distance in [0,2]
// (0.0 = identical, 1.0 = orthogonal, 2.0 = opposite).
type SearchResult struct {
	Name               string  `json:"name"`
	RegistrationNumber string  `json:"registration_number"`
	SimilarityScore    float64 `json:"similarity_score"`
	Distance           float64 `json:"distance"`
}

// CollectionInfo is a descriptive snapshot of the active collection.
type CollectionInfo struct {
	CollectionName string  `json:"collection_name"`
	Dimension      int     `json:"dimension"`
	Mode           string  `json:"mode"`
	Exists         bool    `json:"exists"`
	TotalRecords   int64   `json:"total_records"` // CountUnavailable when unknown
	MetricType     string  `json:"metric_type,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
}

var (
	ErrEmptyName           = errors.New("name must not be empty")
	ErrInvalidRegistration = errors.New("registration number must contain only letters, digits, hyphen and underscore")

	registrationRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// NewFaceRecord validates and normalizes the identity fields: the name
// is trimmed and must be 2-100 runes, the registration number must be
// 3-50 characters of [A-Za-z0-9_-] and is uppercased.
func NewFaceRecord(vector []float32, name, registrationNumber string) (FaceRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return FaceRecord{}, ErrEmptyName
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return FaceRecord{}, fmt.Errorf("name must be 2-100 characters, got %d", n)
	}
	if n := len(registrationNumber); n < 3 || n > 50 {
		return FaceRecord{}, fmt.Errorf("registration number must be 3-50 characters, got %d", n)
	}
	if !registrationRe.MatchString(registrationNumber) {
		return FaceRecord{}, ErrInvalidRegistration
	}
	return FaceRecord{
		Vector:             vector,
		Name:               name,
		RegistrationNumber: strings.ToUpper(registrationNumber),
	}, nil
}
