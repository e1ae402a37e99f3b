package models

import "math"

// Coordinate is a geographic point, latitude first.
// Lng is canonical [-180, 180] when resolved, but an unwrapped polyline may
// carry longitudes outside that range.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatLng returns the coordinate as a [lat, lng] pair
func (c Coordinate) LatLng() [2]float64 {
	return [2]float64{c.Lat, c.Lng}
}

// Normalized returns the coordinate with longitude folded into [-180, 180)
func (c Coordinate) Normalized() Coordinate {
	return Coordinate{Lat: c.Lat, Lng: NormalizeLongitude(c.Lng)}
}

// Near reports whether two coordinates are within tol degrees on both axes.
// Longitudes are compared modulo 360 so 180 and -180 are the same meridian.
func (c Coordinate) Near(other Coordinate, tol float64) bool {
	if math.Abs(c.Lat-other.Lat) > tol {
		return false
	}
	return LongitudeDelta(c.Lng, other.Lng) <= tol
}

// NormalizeLongitude folds a longitude into [-180, 180)
func NormalizeLongitude(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

// LongitudeDelta returns the smallest absolute angular difference between two longitudes
func LongitudeDelta(a, b float64) float64 {
	d := math.Abs(NormalizeLongitude(a) - NormalizeLongitude(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}
