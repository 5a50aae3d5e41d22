package geo

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// BoundingBox is a geographic rectangle in WGS84 decimal degrees.
// SW must be south and west of NE.
type BoundingBox struct {
	SWLat float64
	SWLon float64
	NELat float64
	NELon float64
}

func (b BoundingBox) Validate() error {
	if b.SWLat < -90 || b.SWLat > 90 || b.NELat < -90 || b.NELat > 90 {
		return fmt.Errorf("latitude out of range: sw=%f ne=%f", b.SWLat, b.NELat)
	}
	if b.SWLon < -180 || b.SWLon > 180 || b.NELon < -180 || b.NELon > 180 {
		return fmt.Errorf("longitude out of range: sw=%f ne=%f", b.SWLon, b.NELon)
	}
	if b.SWLat >= b.NELat {
		return fmt.Errorf("sw latitude %f must be south of ne latitude %f", b.SWLat, b.NELat)
	}
	if b.SWLon >= b.NELon {
		return fmt.Errorf("sw longitude %f must be west of ne longitude %f", b.SWLon, b.NELon)
	}
	return nil
}

// String formats the box as west,south,east,north, the order the CMR
// bounding_box parameter expects.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.SWLon, b.SWLat, b.NELon, b.NELat)
}

// FromCenter builds a square bounding box of halfWidth degrees around a
// field centre point.
func FromCenter(lat, lon, halfWidth float64) (BoundingBox, error) {
	if halfWidth <= 0 || halfWidth > 1 {
		return BoundingBox{}, fmt.Errorf("bounding box half-width must be between 0 and 1 degrees, got %f", halfWidth)
	}
	b := BoundingBox{
		SWLat: lat - halfWidth,
		SWLon: lon - halfWidth,
		NELat: lat + halfWidth,
		NELon: lon + halfWidth,
	}
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// FromGeoJSON derives the bounding box and centroid of the first feature
// of a field-boundary GeoJSON file.
func FromGeoJSON(path string) (BoundingBox, float64, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BoundingBox{}, 0, 0, fmt.Errorf("failed to read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return BoundingBox{}, 0, 0, fmt.Errorf("failed to parse geojson: %w", err)
	}
	if len(fc.Features) == 0 {
		return BoundingBox{}, 0, 0, fmt.Errorf("no features in %s", path)
	}
	geom := fc.Features[0].Geometry
	bound := geom.Bound()
	centroid, area := planar.CentroidArea(geom)
	if area <= 0 {
		centroid = bound.Center()
	}
	b := BoundingBox{
		SWLat: bound.Min.Y(),
		SWLon: bound.Min.X(),
		NELat: bound.Max.Y(),
		NELon: bound.Max.X(),
	}
	if err := b.Validate(); err != nil {
		return BoundingBox{}, 0, 0, err
	}
	return b, centroid.Y(), centroid.X(), nil
}

// ParseCoordinatesFile reads the plain-text coordinates format: free
// text is ignored, exactly one "sw <lat>,<lon>" line and one
// "ne <lat>,<lon>" line are required.
func ParseCoordinatesFile(path string) (BoundingBox, error) {
	file, err := os.Open(path)
	if err != nil {
		return BoundingBox{}, fmt.Errorf("failed to open coordinates file: %w", err)
	}
	defer file.Close()

	var swLat, swLon, neLat, neLon float64
	swCount, neCount := 0, 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "sw "):
			lat, lon, err := parseLatLon(strings.TrimPrefix(line, "sw "))
			if err != nil {
				return BoundingBox{}, fmt.Errorf("invalid sw line %q: %w", line, err)
			}
			swLat, swLon = lat, lon
			swCount++
		case strings.HasPrefix(line, "ne "):
			lat, lon, err := parseLatLon(strings.TrimPrefix(line, "ne "))
			if err != nil {
				return BoundingBox{}, fmt.Errorf("invalid ne line %q: %w", line, err)
			}
			neLat, neLon = lat, lon
			neCount++
		}
	}
	if err := scanner.Err(); err != nil {
		return BoundingBox{}, fmt.Errorf("failed to read coordinates file: %w", err)
	}

	if swCount != 1 || neCount != 1 {
		return BoundingBox{}, fmt.Errorf("coordinates file must contain exactly one sw and one ne line, got %d sw and %d ne", swCount, neCount)
	}

	b := BoundingBox{SWLat: swLat, SWLon: swLon, NELat: neLat, NELon: neLon}
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// WriteCoordinatesFile emits the coordinates format consumed by
// ParseCoordinatesFile and by downstream tooling.
func WriteCoordinatesFile(path string, b BoundingBox) error {
	if err := b.Validate(); err != nil {
		return err
	}
	content := fmt.Sprintf("sw %f,%f\nne %f,%f\n", b.SWLat, b.SWLon, b.NELat, b.NELon)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write coordinates file: %w", err)
	}
	return nil
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected <lat>,<lon>")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	return lat, lon, nil
}
