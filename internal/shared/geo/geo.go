// Package geo holds the great-circle math shared by tracking and trip
// aggregation. Distances are computed on a sphere of radius EarthRadiusKm.
package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	EarthRadiusKm = 6371.0

	metersPerKm = 1000.0
	kmhPerMps   = 3.6
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and in range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lng)
}

// DistanceKm returns the haversine distance between a and b in kilometers.
// s2.LatLng.Distance evaluates the haversine central angle, so the result
// is symmetric and exactly zero for identical inputs.
func DistanceKm(a, b Coordinate) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadiusKm
}

// DistanceMeters is DistanceKm expressed in meters.
func DistanceMeters(a, b Coordinate) float64 {
	return DistanceKm(a, b) * metersPerKm
}

// SpeedKmh converts meters per second to kilometers per hour.
func SpeedKmh(metersPerSecond float64) float64 {
	return metersPerSecond * kmhPerMps
}

// Bounds is an axis-aligned latitude/longitude box, inclusive on every edge.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

func (b Bounds) Valid() bool {
	return Coordinate{Lat: b.MinLat, Lng: b.MinLng}.Valid() &&
		Coordinate{Lat: b.MaxLat, Lng: b.MaxLng}.Valid() &&
		b.MinLat <= b.MaxLat
}

// Contains reports whether c lies in the box. A box whose MinLng is greater
// than its MaxLng wraps across the antimeridian.
func (b Bounds) Contains(c Coordinate) bool {
	if c.Lat < b.MinLat || c.Lat > b.MaxLat {
		return false
	}
	if b.MinLng <= b.MaxLng {
		return c.Lng >= b.MinLng && c.Lng <= b.MaxLng
	}
	return c.Lng >= b.MinLng || c.Lng <= b.MaxLng
}

// BoundsAround returns a box enclosing the circle of radiusMeters around center.
func BoundsAround(center Coordinate, radiusMeters float64) Bounds {
	angle := s1.Angle(radiusMeters / (EarthRadiusKm * metersPerKm))
	rect := s2.RectFromLatLng(center.latLng()).
		CapBound().
		Expanded(angle).
		RectBound()

	return Bounds{
		MinLat: rect.Lo().Lat.Degrees(),
		MinLng: rect.Lo().Lng.Degrees(),
		MaxLat: rect.Hi().Lat.Degrees(),
		MaxLng: rect.Hi().Lng.Degrees(),
	}
}
