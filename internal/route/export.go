package route

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"

	"github.com/ngmaloney/rotation-map/internal/models"
)

// ToLatLngPairs returns the geometry as [lat, lng] pairs
func ToLatLngPairs(geom models.RouteGeometry) [][2]float64 {
	out := make([][2]float64, len(geom))
	for i, c := range geom {
		out[i] = c.LatLng()
	}
	return out
}

// ToGeoJSON returns the geometry as a GeoJSON LineString feature.
// GeoJSON positions are [lng, lat]; this is the only place the axes swap.
func ToGeoJSON(geom models.RouteGeometry, props map[string]any) ([]byte, error) {
	ls := make(orb.LineString, len(geom))
	for i, c := range geom {
		ls[i] = orb.Point{c.Lng, c.Lat}
	}

	f := geojson.NewFeature(ls)
	for k, v := range props {
		f.Properties[k] = v
	}
	return f.MarshalJSON()
}

// ToEncodedPolyline encodes the geometry in Google polyline format (lat, lng;
// five decimal places)
func ToEncodedPolyline(geom models.RouteGeometry) string {
	coords := make([][]float64, len(geom))
	for i, c := range geom {
		coords[i] = []float64{c.Lat, c.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}
