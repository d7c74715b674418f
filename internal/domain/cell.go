package domain

import "math"

// earthRadiusMeters is the mean spherical earth radius used for the
// haversine distance between cells.
const earthRadiusMeters = 6371 * 1000.0

// Cell is a simulated cell tower location. Cells are loaded once at startup
// and never mutated afterwards, so values can be shared freely across
// concurrent generation runs.
type Cell struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceMeters returns the haversine distance to another cell in meters.
// The result is symmetric and zero for a cell compared with itself.
func (c Cell) DistanceMeters(other Cell) float64 {
	latDelta := toRadians(c.Lat - other.Lat)
	lonDelta := toRadians(c.Lon - other.Lon)

	a := math.Sin(latDelta/2)*math.Sin(latDelta/2) +
		math.Cos(toRadians(other.Lat))*math.Cos(toRadians(c.Lat))*
			math.Sin(lonDelta/2)*math.Sin(lonDelta/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
