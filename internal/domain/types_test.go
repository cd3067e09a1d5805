package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFaceRecordNormalizes(t *testing.T) {
	rec, err := NewFaceRecord([]float32{1, 2}, "  Alice Smith ", "reg-001_a")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", rec.Name)
	assert.Equal(t, "REG-001_A", rec.RegistrationNumber)
}

func TestNewFaceRecordRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		n    string
		reg  string
	}{
		{"empty name", "", "REG-001"},
		{"blank name", "   ", "REG-001"},
		{"one-rune name", "A", "REG-001"},
		{"overlong name", strings.Repeat("a", 101), "REG-001"},
		{"short registration", "Alice", "AB"},
		{"overlong registration", "Alice", strings.Repeat("R", 51)},
		{"registration with space", "Alice", "REG 001"},
		{"registration with symbol", "Alice", "REG#001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFaceRecord(nil, tt.n, tt.reg)
			assert.Error(t, err)
		})
	}
}
