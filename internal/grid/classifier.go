package grid

// LandClassifier decides whether a representative grid point is land.
// Implementations are consulted only while a grid is being built.
type LandClassifier interface {
	IsLand(lat, lng float64) bool
}

// ClassifierFunc adapts a plain function to LandClassifier
type ClassifierFunc func(lat, lng float64) bool

// IsLand implements LandClassifier
func (f ClassifierFunc) IsLand(lat, lng float64) bool {
	return f(lat, lng)
}

// Box is an inclusive latitude/longitude rectangle
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether the point lies inside the box, edges included
func (b Box) Contains(lat, lng float64) bool {
	return b.MinLat <= lat && lat <= b.MaxLat && b.MinLng <= lng && lng <= b.MaxLng
}

// DefaultLandmasses is a very rough continent approximation.
// Good enough for coarse grids; use a shapefile classifier for anything finer.
var DefaultLandmasses = []Box{
	{MinLat: 0, MaxLat: 70, MinLng: -20, MaxLng: 140},    // Africa/Eurasia
	{MinLat: 15, MaxLat: 70, MinLng: -170, MaxLng: -50},  // North America
	{MinLat: -60, MaxLat: 15, MinLng: -90, MaxLng: -30},  // South America
	{MinLat: -40, MaxLat: -10, MinLng: 110, MaxLng: 160}, // Australia
}

// BoxClassifier marks any point inside one of its boxes as land
type BoxClassifier struct {
	Boxes []Box
}

// NewBoxClassifier returns a classifier over DefaultLandmasses
func NewBoxClassifier() *BoxClassifier {
	return &BoxClassifier{Boxes: DefaultLandmasses}
}

// IsLand implements LandClassifier
func (c *BoxClassifier) IsLand(lat, lng float64) bool {
	for _, b := range c.Boxes {
		if b.Contains(lat, lng) {
			return true
		}
	}
	return false
}

// Ocean is a classifier with no land at all
var Ocean = ClassifierFunc(func(lat, lng float64) bool { return false })
