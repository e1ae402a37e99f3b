// Package landmask supplies land/sea data for grid construction: polygon
// land shapefiles and a SQLite cache of rasterized masks.
package landmask

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PolygonClassifier marks points inside any of its rings as land.
// Each ring is tested on its own; holes such as inland seas are not carved out.
type PolygonClassifier struct {
	rings  []orb.Ring
	bounds []orb.Bound
}

// NewPolygonClassifier builds a classifier from closed rings of [lng, lat] points
func NewPolygonClassifier(rings []orb.Ring) *PolygonClassifier {
	c := &PolygonClassifier{
		rings:  make([]orb.Ring, 0, len(rings)),
		bounds: make([]orb.Bound, 0, len(rings)),
	}
	for _, r := range rings {
		if len(r) < 3 {
			continue
		}
		c.rings = append(c.rings, r)
		c.bounds = append(c.bounds, r.Bound())
	}
	return c
}

// IsLand implements grid.LandClassifier
func (c *PolygonClassifier) IsLand(lat, lng float64) bool {
	pt := orb.Point{lng, lat} // orb points are [lng, lat]
	for i, r := range c.rings {
		if !c.bounds[i].Contains(pt) {
			continue
		}
		if planar.RingContains(r, pt) {
			return true
		}
	}
	return false
}

// Rings returns the number of rings loaded
func (c *PolygonClassifier) Rings() int {
	return len(c.rings)
}

// LoadShapefile reads every polygon part of a land shapefile as a ring
func LoadShapefile(path string) (*PolygonClassifier, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	var rings []orb.Ring
	for shape.Next() {
		_, p := shape.Shape()

		polygon, ok := p.(*shp.Polygon)
		if !ok {
			continue
		}

		for partIdx := 0; partIdx < len(polygon.Parts); partIdx++ {
			startIdx := int(polygon.Parts[partIdx])
			endIdx := len(polygon.Points)
			if partIdx+1 < len(polygon.Parts) {
				endIdx = int(polygon.Parts[partIdx+1])
			}

			ring := make(orb.Ring, 0, endIdx-startIdx)
			for i := startIdx; i < endIdx; i++ {
				pt := polygon.Points[i]
				ring = append(ring, orb.Point{pt.X, pt.Y})
			}
			rings = append(rings, ring)
		}
	}
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("reading shapefile: %w", err)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("no polygons found in %s", path)
	}

	return NewPolygonClassifier(rings), nil
}
