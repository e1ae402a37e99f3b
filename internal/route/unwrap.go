package route

import "github.com/ngmaloney/rotation-map/internal/models"

// Unwrap shifts longitudes by multiples of 360 so no step between
// consecutive points exceeds 180 degrees. The first point is kept as is and
// later longitudes may leave [-180, 180]. The input is not modified.
func Unwrap(seq []models.Coordinate) []models.Coordinate {
	out := make([]models.Coordinate, len(seq))
	copy(out, seq)

	for i := 1; i < len(out); i++ {
		prev := out[i-1].Lng
		for out[i].Lng-prev > 180 {
			out[i].Lng -= 360
		}
		for out[i].Lng-prev < -180 {
			out[i].Lng += 360
		}
	}
	return out
}
