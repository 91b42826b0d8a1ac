package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareBoundary = `{"coordinates": [
	{"lat": 0, "lng": 0},
	{"lat": 0, "lng": 1},
	{"lat": 1, "lng": 1},
	{"lat": 1, "lng": 0}
]}`

func TestValidateBoundary(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"empty is optional", "", false},
		{"valid square", squareBoundary, false},
		{"not json", "{{", true},
		{"two points", `{"coordinates": [{"lat": 0, "lng": 0}, {"lat": 1, "lng": 1}]}`, true},
		{"latitude out of range", `{"coordinates": [{"lat": 91, "lng": 0}, {"lat": 0, "lng": 1}, {"lat": 1, "lng": 1}]}`, true},
		{"longitude out of range", `{"coordinates": [{"lat": 0, "lng": -181}, {"lat": 0, "lng": 1}, {"lat": 1, "lng": 1}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBoundary([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBoundaryContains(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"center", 0.5, 0.5, true},
		{"near corner", 0.1, 0.1, true},
		{"outside east", 0.5, 1.5, false},
		{"outside north", 2.0, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoundaryContains([]byte(squareBoundary), tt.lat, tt.lng)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundaryContains_NoBoundary(t *testing.T) {
	got, err := BoundaryContains(nil, -0.3, 36.1)
	require.NoError(t, err)
	assert.True(t, got, "farms without a boundary contain every point")
}

func TestBoundaryContains_Invalid(t *testing.T) {
	_, err := BoundaryContains([]byte("{{"), 0, 0)
	assert.Error(t, err)

	_, err = BoundaryContains([]byte(`{"coordinates": [{"lat": 0, "lng": 0}]}`), 0, 0)
	assert.Error(t, err)
}
