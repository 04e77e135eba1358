package survey

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseKML extracts the first boundary polygon from a KML document. The
// coordinate format is "lon,lat[,alt]" triplets separated by
// whitespace; both namespaced and bare documents are accepted.
func ParseKML(r io.Reader) ([]Point, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("kml: no coordinates element found")
		}
		if err != nil {
			return nil, fmt.Errorf("kml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "coordinates" {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return nil, fmt.Errorf("kml: decode coordinates: %w", err)
		}
		return parseCoordinates(text)
	}
}

func parseCoordinates(text string) ([]Point, error) {
	var boundary []Point
	for _, triplet := range strings.Fields(text) {
		parts := strings.Split(triplet, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: bad longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: bad latitude %q: %w", parts[1], err)
		}
		boundary = append(boundary, Point{Latitude: lat, Longitude: lon})
	}
	if len(boundary) < 3 {
		return nil, fmt.Errorf("kml: boundary needs at least 3 points, got %d", len(boundary))
	}
	return boundary, nil
}
