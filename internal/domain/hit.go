package domain

// Source tags which backend produced a raw hit, so the normalizer can
// pattern-match exhaustively instead of guessing field semantics.
type Source int

const (
	SourceLocal Source = iota
	SourceRemote
)

func (s Source) String() string {
	if s == SourceRemote {
		return "remote"
	}
	return "local"
}

// RawHit is one backend-native nearest-neighbor hit. Local hits carry
// Score (similarity in [0,1], 1.0 = identical); remote hits carry
// Distance (the engine's "distance"-labeled field, nominally in [0,2]).
// The inactive field is zero and meaningless. Only the normalizer may
// interpret these values.
type RawHit struct {
	Source             Source
	Name               string
	RegistrationNumber string
	Score              float64
	Distance           float64
}
