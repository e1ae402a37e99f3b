// Package ports resolves free-text port names to coordinates.
package ports

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/ngmaloney/rotation-map/internal/models"
)

// ErrNotFound is returned when a port does not exist
var ErrNotFound = errors.New("port not found")

// Directory maps a raw port name to a coordinate. ok is false when the name
// is unknown; err is reserved for lookup failures.
type Directory interface {
	Resolve(ctx context.Context, rawName string) (pos models.Coordinate, ok bool, err error)
}

var parenthetical = regexp.MustCompile(`\(.*?\)`)

// NormalizeName strips parenthetical annotations, trims and case-folds:
// "Manzanillo(Mexico) " becomes "manzanillo".
func NormalizeName(raw string) string {
	name := parenthetical.ReplaceAllString(raw, "")
	return strings.ToLower(strings.TrimSpace(name))
}

// StaticDirectory is an in-memory directory keyed by normalized name
type StaticDirectory map[string]models.Coordinate

// NewStaticDirectory normalizes the keys of entries
func NewStaticDirectory(entries map[string]models.Coordinate) StaticDirectory {
	d := make(StaticDirectory, len(entries))
	for name, pos := range entries {
		d[NormalizeName(name)] = pos
	}
	return d
}

// Resolve implements Directory
func (d StaticDirectory) Resolve(_ context.Context, rawName string) (models.Coordinate, bool, error) {
	pos, ok := d[NormalizeName(rawName)]
	return pos, ok, nil
}

// Fixtures are well-known container ports with a few common aliases
var Fixtures = map[string]models.Coordinate{
	"Busan":       {Lat: 35.1, Lng: 129.0},
	"Pusan":       {Lat: 35.1, Lng: 129.0},
	"Shanghai":    {Lat: 31.2, Lng: 121.5},
	"Ningbo":      {Lat: 29.9, Lng: 121.6},
	"Hong Kong":   {Lat: 22.3, Lng: 114.2},
	"Kaohsiung":   {Lat: 22.6, Lng: 120.3},
	"Tokyo":       {Lat: 35.6, Lng: 139.8},
	"Yokohama":    {Lat: 35.4, Lng: 139.6},
	"Singapore":   {Lat: 1.3, Lng: 103.8},
	"Colombo":     {Lat: 6.9, Lng: 79.8},
	"Rotterdam":   {Lat: 51.9, Lng: 4.5},
	"Antwerp":     {Lat: 51.3, Lng: 4.4},
	"Hamburg":     {Lat: 53.5, Lng: 10.0},
	"Long Beach":  {Lat: 33.7, Lng: -118.2},
	"Los Angeles": {Lat: 33.7, Lng: -118.3},
	"Oakland":     {Lat: 37.8, Lng: -122.3},
	"Vancouver":   {Lat: 49.3, Lng: -123.1},
	"Manzanillo":  {Lat: 19.1, Lng: -104.3},
	"New York":    {Lat: 40.7, Lng: -74.0},
	"Savannah":    {Lat: 32.1, Lng: -81.1},
	"Santos":      {Lat: -23.9, Lng: -46.3},
	"Sydney":      {Lat: -33.9, Lng: 151.2},
}

// DefaultDirectory returns a directory over Fixtures
func DefaultDirectory() StaticDirectory {
	return NewStaticDirectory(Fixtures)
}

// Chain tries each directory in order and returns the first match
type Chain []Directory

// Resolve implements Directory
func (c Chain) Resolve(ctx context.Context, rawName string) (models.Coordinate, bool, error) {
	for _, d := range c {
		pos, ok, err := d.Resolve(ctx, rawName)
		if err != nil {
			return models.Coordinate{}, false, err
		}
		if ok {
			return pos, true, nil
		}
	}
	return models.Coordinate{}, false, nil
}
