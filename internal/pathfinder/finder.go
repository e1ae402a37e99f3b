// Package pathfinder computes sea paths between two coordinates.
//
// The default backend runs A* over a WorldGrid. A remote routing service can
// be used instead, and either backend can be wrapped in a result cache.
package pathfinder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/models"
)

// ErrUnknownBackend is returned by New for an unrecognised backend name
var ErrUnknownBackend = errors.New("unknown pathfinding backend")

// Backend names
const (
	BackendGrid   = "grid"
	BackendRemote = "remote"
)

// Finder finds a sea path between two points.
// A missing path is reported as Found=false with a nil error.
type Finder interface {
	FindPath(ctx context.Context, from, to models.Coordinate) (Result, error)
}

// Result is the outcome of one search. Path runs start to goal inclusive.
type Result struct {
	Path     []models.Coordinate
	Cells    []grid.Cell // grid backend only
	Expanded int         // grid backend only
	Found    bool
}

// Config selects and tunes a backend
type Config struct {
	Backend       string
	MaxExpansions int
	RemoteURL     string
	Timeout       time.Duration
	CacheSize     int64 // entries; 0 disables caching
}

// New builds the finder described by cfg. The grid is required for the grid
// backend and also quantizes cache keys.
func New(cfg Config, g *grid.WorldGrid) (Finder, error) {
	var f Finder
	switch cfg.Backend {
	case "", BackendGrid:
		if g == nil {
			return nil, errors.New("grid backend requires a grid")
		}
		f = NewGridFinder(g, cfg.MaxExpansions)
	case BackendRemote:
		if cfg.RemoteURL == "" {
			return nil, errors.New("remote backend requires a URL")
		}
		f = NewRemoteFinder(cfg.RemoteURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	if cfg.CacheSize > 0 && g != nil {
		return NewCachedFinder(f, g, cfg.CacheSize)
	}
	return f, nil
}
