package geo

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"fundi/internal/domain/entities"
)

func coord(lat, long float64) entities.Coordinate {
	return entities.Coordinate{Latitude: lat, Longitude: long}
}

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		a         entities.Coordinate
		b         entities.Coordinate
		want      float64
		tolerance float64
	}{
		{
			name:      "San Francisco to New York",
			a:         coord(37.7749, -122.4194),
			b:         coord(40.7128, -74.0060),
			want:      4129.0,
			tolerance: 10.0,
		},
		{
			name:      "Half degree of latitude at the equator",
			a:         coord(0, 0),
			b:         coord(0.5, 0),
			want:      55.6,
			tolerance: 0.2,
		},
		{
			name:      "Adjacent blocks in Nairobi CBD",
			a:         coord(-1.2921, 36.8219),
			b:         coord(-1.2911, 36.8209),
			want:      0.157,
			tolerance: 0.01,
		},
		{
			name:      "Identical points",
			a:         coord(51.5074, -0.1278),
			b:         coord(51.5074, -0.1278),
			want:      0,
			tolerance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceKm() = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func drawCoordinate(t *rapid.T, label string) entities.Coordinate {
	return entities.Coordinate{
		Latitude:  rapid.Float64Range(-90, 90).Draw(t, label+"-lat"),
		Longitude: rapid.Float64Range(-180, 180).Draw(t, label+"-long"),
	}
}

func TestDistanceKm_IdentityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawCoordinate(t, "a")
		if got := DistanceKm(a, a); got != 0 {
			t.Errorf("DistanceKm(a, a) = %v, want 0", got)
		}
	})
}

func TestDistanceKm_SymmetryProperty(t *testing.T) {
	const epsilon = 1e-6

	rapid.Check(t, func(t *rapid.T) {
		a := drawCoordinate(t, "a")
		b := drawCoordinate(t, "b")

		forward := DistanceKm(a, b)
		backward := DistanceKm(b, a)
		if math.Abs(forward-backward) > epsilon {
			t.Errorf("DistanceKm not symmetric: %v vs %v", forward, backward)
		}
		if forward < 0 {
			t.Errorf("DistanceKm returned negative distance %v", forward)
		}
	})
}

func TestWithinRadius_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		center := drawCoordinate(t, "center")
		point := drawCoordinate(t, "point")
		radius := rapid.Float64Range(0, 25000).Draw(t, "radius")

		want := DistanceKm(center, point) <= radius
		if got := WithinRadius(center, point, radius); got != want {
			t.Errorf("WithinRadius(%v, %v, %v) = %v, want %v", center, point, radius, got, want)
		}
	})
}

func TestWithinRadius_ZeroRadius(t *testing.T) {
	a := coord(-1.2921, 36.8219)
	if !WithinRadius(a, a, 0) {
		t.Error("Point should be within zero radius of itself")
	}
	if WithinRadius(a, coord(-1.2931, 36.8229), 0) {
		t.Error("Distinct point should not be within zero radius")
	}
}
