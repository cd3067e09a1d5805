package matcher

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"facematch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeLocalConversionLaw(t *testing.T) {
	tests := []struct {
		name           string
		score          float64
		wantSimilarity float64
		wantDistance   float64
	}{
		{"identical", 1.0, 1.0, 0.0},
		{"quarter", 0.25, 0.25, 1.5},
		{"opposite", 0.0, 0.0, 2.0},
		{"halfway", 0.5, 0.5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, dist := normalizeLocal(tt.score)
			assert.InDelta(t, tt.wantSimilarity, sim, 1e-9)
			assert.InDelta(t, tt.wantDistance, dist, 1e-9)
		})
	}
}

func TestNormalizeRemoteSwapLaw(t *testing.T) {
	e := &Engine{log: discardLogger()}

	tests := []struct {
		name           string
		raw            float64
		wantSimilarity float64
		wantDistance   float64
	}{
		// The textbook conversion would give (similarity=1-r, distance=r);
		// the output pair is its swap.
		{"raw zero", 0.0, 0.0, 1.0},
		{"observed value", 0.6406, 0.6406, 0.3594},
		{"raw one", 1.0, 1.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, dist := e.normalizeRemote(tt.raw)
			assert.InDelta(t, tt.wantSimilarity, sim, 1e-9)
			assert.InDelta(t, tt.wantDistance, dist, 1e-9)
		})
	}
}

func TestNormalizeRemoteClampsOutOfRange(t *testing.T) {
	e := &Engine{log: discardLogger()}

	// -0.3 clamps to 0.0 before conversion.
	sim, dist := e.normalizeRemote(-0.3)
	assert.InDelta(t, 0.0, sim, 1e-9)
	assert.InDelta(t, 1.0, dist, 1e-9)

	// 2.7 clamps to 2.0; intermediate similarity 1-2 clamps to 0.
	sim, dist = e.normalizeRemote(2.7)
	assert.InDelta(t, 2.0, sim, 1e-9)
	assert.InDelta(t, 0.0, dist, 1e-9)
}

func TestNormalizeRangeInvariants(t *testing.T) {
	e := &Engine{log: discardLogger()}

	// Remote raw values behave as similarities in practice, so the
	// meaningful input range after the swap is [0,1]. Values below it
	// clamp; the high end is pinned separately above.
	raws := []float64{-5, -0.3, 0, 0.1, 0.5, 0.6406, 0.99, 1}
	for _, raw := range raws {
		hit := domain.RawHit{Source: domain.SourceRemote, Distance: raw}
		res := e.normalize(hit)
		assert.GreaterOrEqual(t, res.SimilarityScore, 0.0, "raw %v", raw)
		assert.LessOrEqual(t, res.SimilarityScore, 1.0, "raw %v", raw)
		assert.GreaterOrEqual(t, res.Distance, 0.0, "raw %v", raw)
		assert.LessOrEqual(t, res.Distance, 2.0, "raw %v", raw)
	}

	scores := []float64{-1, 0, 0.25, 0.5, 0.99, 1, 2}
	for _, s := range scores {
		hit := domain.RawHit{Source: domain.SourceLocal, Score: s}
		res := e.normalize(hit)
		assert.GreaterOrEqual(t, res.SimilarityScore, 0.0, "score %v", s)
		assert.LessOrEqual(t, res.SimilarityScore, 1.0, "score %v", s)
		assert.GreaterOrEqual(t, res.Distance, 0.0, "score %v", s)
		assert.LessOrEqual(t, res.Distance, 2.0, "score %v", s)
	}
}

func TestNormalizeCarriesIdentity(t *testing.T) {
	e := &Engine{log: discardLogger()}
	res := e.normalize(domain.RawHit{
		Source:             domain.SourceLocal,
		Name:               "Alice",
		RegistrationNumber: "REG-001",
		Score:              0.98,
	})
	assert.Equal(t, "Alice", res.Name)
	assert.Equal(t, "REG-001", res.RegistrationNumber)
}

func TestSwapRemoteFields(t *testing.T) {
	d, s := swapRemoteFields(0.25, 0.75)
	assert.Equal(t, 0.75, d)
	assert.Equal(t, 0.25, s)
}
