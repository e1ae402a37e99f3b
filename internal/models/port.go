package models

import "time"

// Port is a named port of call with canonical coordinates.
// Aliases hold alternative spellings used in schedule data.
type Port struct {
	ID        int64     `json:"id"`   // Database Primary Key (0 if not saved)
	Name      string    `json:"name"` // Canonical name (e.g. "Busan")
	Code      string    `json:"code"` // UN/LOCODE when known (e.g. "KRPUS")
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Aliases   []string  `json:"aliases,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinate returns the port position
func (p Port) Coordinate() Coordinate {
	return Coordinate{Lat: p.Latitude, Lng: p.Longitude}
}
