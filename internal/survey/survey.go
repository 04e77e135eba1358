// Package survey plans lawnmower coverage missions over a polygon
// boundary, typically imported from a KML file drawn in Google Earth.
package survey

import "math"

const (
	earthRadiusM = 6378137.0

	// Pi HQ Camera with the 6mm lens.
	cameraFOVDeg = 66.7

	DefaultAltitudeM = 15.0
	DefaultSpeedMS   = 2.0
	DefaultOverlap   = 0.70
)

// Point is one boundary vertex.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Params configures a survey plan.
type Params struct {
	AltitudeM      float64 `json:"altitude_m"`
	SpeedMS        float64 `json:"speed_ms"`
	LateralOverlap float64 `json:"lateral_overlap"` // 0..1 between passes
}

// withDefaults fills unset fields.
func (p Params) withDefaults() Params {
	if p.AltitudeM <= 0 {
		p.AltitudeM = DefaultAltitudeM
	}
	if p.SpeedMS <= 0 {
		p.SpeedMS = DefaultSpeedMS
	}
	if p.LateralOverlap <= 0 || p.LateralOverlap >= 1 {
		p.LateralOverlap = DefaultOverlap
	}
	return p
}

// groundWidthM is the footprint width the camera sees at altitude.
func (p Params) groundWidthM() float64 {
	fov := cameraFOVDeg * math.Pi / 180
	return 2 * p.AltitudeM * math.Tan(fov/2)
}

// swathWidthM is the pass spacing after overlap.
func (p Params) swathWidthM() float64 {
	return p.groundWidthM() * (1 - p.LateralOverlap)
}

func metersToLat(m float64) float64 {
	return m / earthRadiusM * (180 / math.Pi)
}

// haversineM is the great-circle distance between two points in meters.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
