// Package geo provides coordinate types and the coarse-area lookup table
// used by the area match check.
package geo

import "fmt"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

// String renders the coordinate as "lat,lng" with enough precision to be
// used as a cache key component.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
