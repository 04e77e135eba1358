package survey

import (
	"fmt"
	"math"
	"sort"

	"github.com/RanaPoddar/gcs-service/internal/drone"
)

// Plan is a generated survey mission plus its flight estimate.
type Plan struct {
	Waypoints []drone.Waypoint `json:"waypoints"`

	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	FieldLengthM    float64 `json:"field_length_m"`
	FieldWidthM     float64 `json:"field_width_m"`
	SwathWidthM     float64 `json:"swath_width_m"`
	Passes          int     `json:"passes"`
	DistanceM       float64 `json:"distance_m"`
	EstimatedMin    float64 `json:"estimated_minutes"`
}

// PlanSurvey generates a serpentine east-west coverage pattern inside
// the boundary polygon. Each scan line is clipped against the polygon
// with the even-odd rule, so concave boundaries produce multiple
// segments per line; flight direction alternates segment to segment.
func PlanSurvey(boundary []Point, params Params) (*Plan, error) {
	if len(boundary) < 3 {
		return nil, fmt.Errorf("survey: boundary needs at least 3 points, got %d", len(boundary))
	}
	p := params.withDefaults()

	minLat, maxLat := boundary[0].Latitude, boundary[0].Latitude
	minLon, maxLon := boundary[0].Longitude, boundary[0].Longitude
	for _, pt := range boundary[1:] {
		minLat = math.Min(minLat, pt.Latitude)
		maxLat = math.Max(maxLat, pt.Latitude)
		minLon = math.Min(minLon, pt.Longitude)
		maxLon = math.Max(maxLon, pt.Longitude)
	}
	centerLat := (minLat + maxLat) / 2
	centerLon := (minLon + maxLon) / 2

	stepLat := metersToLat(p.swathWidthM())
	direction := 1 // 1 = west-to-east
	passes := 0

	var waypoints []drone.Waypoint
	for lat := minLat + stepLat/2; lat <= maxLat; lat += stepLat {
		for _, seg := range clipScanline(boundary, lat) {
			start, end := seg[0], seg[1]
			if direction < 0 {
				start, end = end, start
			}
			waypoints = append(waypoints,
				drone.Waypoint{Latitude: lat, Longitude: start, Altitude: p.AltitudeM},
				drone.Waypoint{Latitude: lat, Longitude: end, Altitude: p.AltitudeM},
			)
			passes++
			direction = -direction
		}
	}
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("survey: boundary narrower than one %.1fm swath", p.swathWidthM())
	}

	fieldLength := haversineM(minLat, centerLon, maxLat, centerLon)
	fieldWidth := haversineM(centerLat, minLon, centerLat, maxLon)
	distance := flightDistanceM(waypoints)
	minutes := distance / p.SpeedMS / 60

	return &Plan{
		Waypoints:       waypoints,
		CenterLatitude:  centerLat,
		CenterLongitude: centerLon,
		FieldLengthM:    fieldLength,
		FieldWidthM:     fieldWidth,
		SwathWidthM:     p.swathWidthM(),
		Passes:          passes,
		DistanceM:       distance,
		EstimatedMin:    minutes * 1.15, // turn allowance
	}, nil
}

// clipScanline intersects the horizontal line at lat with the polygon
// and returns the inside segments as [west, east] longitude pairs.
func clipScanline(boundary []Point, lat float64) [][2]float64 {
	var crossings []float64
	n := len(boundary)
	for i := 0; i < n; i++ {
		a, b := boundary[i], boundary[(i+1)%n]
		if (a.Latitude > lat) == (b.Latitude > lat) {
			continue
		}
		t := (lat - a.Latitude) / (b.Latitude - a.Latitude)
		crossings = append(crossings, a.Longitude+t*(b.Longitude-a.Longitude))
	}
	sort.Float64s(crossings)

	var segments [][2]float64
	for i := 0; i+1 < len(crossings); i += 2 {
		segments = append(segments, [2]float64{crossings[i], crossings[i+1]})
	}
	return segments
}

func flightDistanceM(wps []drone.Waypoint) float64 {
	var total float64
	for i := 1; i < len(wps); i++ {
		total += haversineM(wps[i-1].Latitude, wps[i-1].Longitude,
			wps[i].Latitude, wps[i].Longitude)
	}
	return total
}
