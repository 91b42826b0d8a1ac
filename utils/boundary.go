package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Coordinate is one vertex of a farm boundary polygon.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Boundary is a polygonal field boundary stored on the farm record.
type Boundary struct {
	Coordinates []Coordinate `json:"coordinates"`
	Name        string       `json:"name,omitempty"`
}

// ValidateBoundary validates a farm boundary payload. An empty payload is
// fine; boundaries are optional.
func ValidateBoundary(boundaryJSON []byte) error {
	if len(boundaryJSON) == 0 {
		return nil
	}

	var b Boundary
	if err := json.Unmarshal(boundaryJSON, &b); err != nil {
		return fmt.Errorf("invalid boundary JSON format: %w", err)
	}

	// A valid polygon needs at least 3 points.
	if len(b.Coordinates) < 3 {
		return errors.New("boundary must have at least 3 coordinates to form a polygon")
	}

	for i, coord := range b.Coordinates {
		if coord.Lat < -90 || coord.Lat > 90 {
			return fmt.Errorf("invalid latitude %f at index %d", coord.Lat, i)
		}
		if coord.Lng < -180 || coord.Lng > 180 {
			return fmt.Errorf("invalid longitude %f at index %d", coord.Lng, i)
		}
	}
	return nil
}

// BoundaryContains reports whether a point lies inside the farm boundary.
// Farms without a boundary contain every point.
func BoundaryContains(boundaryJSON []byte, lat, lng float64) (bool, error) {
	if len(boundaryJSON) == 0 {
		return true, nil
	}

	var b Boundary
	if err := json.Unmarshal(boundaryJSON, &b); err != nil {
		return false, fmt.Errorf("invalid boundary JSON format: %w", err)
	}
	if len(b.Coordinates) < 3 {
		return false, errors.New("boundary has fewer than 3 coordinates")
	}

	ring := make(orb.Ring, 0, len(b.Coordinates)+1)
	for _, coord := range b.Coordinates {
		ring = append(ring, orb.Point{coord.Lng, coord.Lat})
	}
	// Close the ring if the client left it open.
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	return planar.PolygonContains(orb.Polygon{ring}, orb.Point{lng, lat}), nil
}
