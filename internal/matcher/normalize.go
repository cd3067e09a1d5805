package matcher

import "facematch/internal/domain"

// Canonical result contract, regardless of backend:
//
//	similarity_score in [0,1], 1.0 = identical
//	distance         in [0,2], 0.0 = identical, 1.0 = orthogonal
//
// The two backends report different native fields with different
// semantics, so each source has its own conversion. Out-of-range raw
// values are clamped and logged, never fatal: one malformed hit must
// not fail the whole search.
func (e *Engine) normalize(h domain.RawHit) domain.SearchResult {
	var similarity, distance float64
	switch h.Source {
	case domain.SourceRemote:
		similarity, distance = e.normalizeRemote(h.Distance)
	default:
		similarity, distance = normalizeLocal(h.Score)
	}
	e.log.Debug("hit normalized",
		"source", h.Source.String(),
		"similarity", similarity, "distance", distance)
	return domain.SearchResult{
		Name:               h.Name,
		RegistrationNumber: h.RegistrationNumber,
		SimilarityScore:    similarity,
		Distance:           distance,
	}
}

// normalizeLocal converts the embedded backend's native score, a
// similarity in [0,1] already in canonical orientation:
//
//	score 1.0 -> distance 0.0, score 0.0 -> distance 2.0
func normalizeLocal(score float64) (similarity, distance float64) {
	similarity = clamp(score, 0, 1)
	distance = clamp(2.0*(1.0-similarity), 0, 2)
	return similarity, distance
}

// normalizeRemote converts the clustered backend's "distance"-labeled
// raw value. The textbook conversion is computed first, then the two
// fields are swapped through swapRemoteFields before being returned.
func (e *Engine) normalizeRemote(raw float64) (similarity, distance float64) {
	if raw < 0.0 || raw > 2.0 {
		e.log.Warn("raw distance outside expected range [0,2], clamping", "raw", raw)
		raw = clamp(raw, 0, 2)
	}
	distance = raw
	similarity = clamp(1.0-raw, 0, 1)
	distance, similarity = swapRemoteFields(distance, similarity)
	return similarity, distance
}

// swapRemoteFields exchanges distance and similarity for remote hits.
// The wrapped engine's cosine search reports what this engine treats as
// similarity under the field labeled "distance" and vice versa; this
// swap restores the canonical orientation. Removing it inverts every
// remote-mode result. Kept as its own function so it can be toggled per
// backend version without touching the rest of the normalizer.
func swapRemoteFields(distance, similarity float64) (float64, float64) {
	return similarity, distance
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
