// Package route turns an ordered list of port names into one continuous
// rotation polyline.
package route

import "github.com/ngmaloney/rotation-map/internal/models"

// Stitcher joins per-segment paths in order. When a path starts where the
// previous one ended, the shared point is kept once.
type Stitcher struct {
	tolerance float64
	points    []models.Coordinate
	gaps      int
}

// NewStitcher returns a stitcher treating points within tolerance degrees
// as the same point
func NewStitcher(tolerance float64) *Stitcher {
	return &Stitcher{tolerance: tolerance}
}

// Add appends one segment path. An empty path is a gap and adds nothing.
func (s *Stitcher) Add(path []models.Coordinate) {
	if len(path) == 0 {
		s.gaps++
		return
	}
	if n := len(s.points); n > 0 && path[0].Near(s.points[n-1], s.tolerance) {
		path = path[1:]
	}
	s.points = append(s.points, path...)
}

// Gaps returns how many empty paths were added
func (s *Stitcher) Gaps() int {
	return s.gaps
}

// Result returns the joined polyline
func (s *Stitcher) Result() []models.Coordinate {
	out := make([]models.Coordinate, len(s.points))
	copy(out, s.points)
	return out
}
