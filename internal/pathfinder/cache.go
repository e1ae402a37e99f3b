package pathfinder

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/metrics"
	"github.com/ngmaloney/rotation-map/internal/models"
)

// CachedFinder memoises found paths. In front of a GridFinder, points that
// quantize to the same cells share an entry, since the grid search answers
// them identically. Any other backend returns paths anchored on the exact
// query points, so entries are keyed on the coordinates themselves.
type CachedFinder struct {
	next     Finder
	grid     *grid.WorldGrid
	quantize bool
	cache    *ristretto.Cache[string, Result]
}

// NewCachedFinder wraps next with a cache of up to size results
func NewCachedFinder(next Finder, g *grid.WorldGrid, size int64) (*CachedFinder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, Result]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating path cache: %w", err)
	}
	_, quantize := next.(*GridFinder)
	return &CachedFinder{next: next, grid: g, quantize: quantize && g != nil, cache: cache}, nil
}

func (f *CachedFinder) key(from, to models.Coordinate) string {
	if !f.quantize {
		return fmt.Sprintf("%v,%v/%v,%v", from.Lat, from.Lng, to.Lat, to.Lng)
	}
	a := f.grid.CoordToCell(from)
	b := f.grid.CoordToCell(to)
	return fmt.Sprintf("%d:%d/%d:%d", a.Row, a.Col, b.Row, b.Col)
}

// FindPath implements Finder. Errors and missing paths are not cached.
func (f *CachedFinder) FindPath(ctx context.Context, from, to models.Coordinate) (Result, error) {
	key := f.key(from, to)
	if res, ok := f.cache.Get(key); ok {
		metrics.PathCacheHits.Inc()
		return res, nil
	}
	metrics.PathCacheMisses.Inc()

	res, err := f.next.FindPath(ctx, from, to)
	if err != nil || !res.Found {
		return res, err
	}
	f.cache.Set(key, res, 1)
	return res, nil
}

// Wait blocks until pending cache writes are visible
func (f *CachedFinder) Wait() {
	f.cache.Wait()
}

// Close releases the cache
func (f *CachedFinder) Close() {
	f.cache.Close()
}
