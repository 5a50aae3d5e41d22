package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		box     BoundingBox
		wantErr bool
	}{
		{
			name: "valid",
			box:  BoundingBox{SWLat: 45.243, SWLon: 78.445, NELat: 45.291, NELon: 78.491},
		},
		{
			name:    "inverted latitude",
			box:     BoundingBox{SWLat: 45.291, SWLon: 78.445, NELat: 45.243, NELon: 78.491},
			wantErr: true,
		},
		{
			name:    "inverted longitude",
			box:     BoundingBox{SWLat: 45.243, SWLon: 78.491, NELat: 45.291, NELon: 78.445},
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			box:     BoundingBox{SWLat: -91, SWLon: 0, NELat: 1, NELon: 1},
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			box:     BoundingBox{SWLat: 0, SWLon: 179, NELat: 1, NELon: 181},
			wantErr: true,
		},
		{
			name:    "degenerate",
			box:     BoundingBox{SWLat: 10, SWLon: 10, NELat: 10, NELon: 10},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCoordinatesFile(t *testing.T) {
	writeCoords := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "coordinates.txt")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("valid with free text", func(t *testing.T) {
		path := writeCoords(t, "field 17, winter wheat\nsw 45.243,78.445\nne 45.291,78.491\nnotes: cloudy in may\n")
		box, err := ParseCoordinatesFile(path)
		if err != nil {
			t.Fatalf("ParseCoordinatesFile() error = %v", err)
		}
		if box.SWLat != 45.243 || box.SWLon != 78.445 || box.NELat != 45.291 || box.NELon != 78.491 {
			t.Errorf("unexpected box: %+v", box)
		}
	})

	t.Run("missing ne line", func(t *testing.T) {
		path := writeCoords(t, "sw 45.243,78.445\n")
		if _, err := ParseCoordinatesFile(path); err == nil {
			t.Error("expected error for missing ne line")
		}
	})

	t.Run("duplicate sw line", func(t *testing.T) {
		path := writeCoords(t, "sw 45.243,78.445\nsw 45.244,78.446\nne 45.291,78.491\n")
		if _, err := ParseCoordinatesFile(path); err == nil {
			t.Error("expected error for duplicate sw line")
		}
	})

	t.Run("inverted corners rejected", func(t *testing.T) {
		path := writeCoords(t, "sw 45.291,78.491\nne 45.243,78.445\n")
		if _, err := ParseCoordinatesFile(path); err == nil {
			t.Error("expected error for inverted corners")
		}
	})

	t.Run("malformed coordinates", func(t *testing.T) {
		path := writeCoords(t, "sw abc,def\nne 45.291,78.491\n")
		if _, err := ParseCoordinatesFile(path); err == nil {
			t.Error("expected error for malformed coordinates")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseCoordinatesFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestWriteCoordinatesFileRoundTrip(t *testing.T) {
	box := BoundingBox{SWLat: 45.243, SWLon: 78.445, NELat: 45.291, NELon: 78.491}
	path := filepath.Join(t.TempDir(), "coordinates.txt")

	if err := WriteCoordinatesFile(path, box); err != nil {
		t.Fatalf("WriteCoordinatesFile() error = %v", err)
	}
	parsed, err := ParseCoordinatesFile(path)
	if err != nil {
		t.Fatalf("ParseCoordinatesFile() error = %v", err)
	}
	if parsed != box {
		t.Errorf("round trip mismatch: wrote %+v, read %+v", box, parsed)
	}
}

func TestFromCenter(t *testing.T) {
	box, err := FromCenter(51.024681, 71.841594, 0.01)
	if err != nil {
		t.Fatalf("FromCenter() error = %v", err)
	}
	if box.SWLat != 51.014681 || box.NELat != 51.034681 {
		t.Errorf("unexpected latitudes: %+v", box)
	}
	if box.SWLon != 71.831594 || box.NELon != 71.851594 {
		t.Errorf("unexpected longitudes: %+v", box)
	}

	if _, err := FromCenter(51, 71, 0); err == nil {
		t.Error("expected error for zero half-width")
	}
	if _, err := FromCenter(51, 71, 1.5); err == nil {
		t.Error("expected error for oversized half-width")
	}
}

func TestFromGeoJSON(t *testing.T) {
	content := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"field_id":"17"},"geometry":{"type":"Polygon","coordinates":[[[78.445,45.243],[78.491,45.243],[78.491,45.291],[78.445,45.291],[78.445,45.243]]]}}]}`
	path := filepath.Join(t.TempDir(), "field.geojson")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	box, lat, lon, err := FromGeoJSON(path)
	if err != nil {
		t.Fatalf("FromGeoJSON() error = %v", err)
	}
	if box.SWLat != 45.243 || box.SWLon != 78.445 || box.NELat != 45.291 || box.NELon != 78.491 {
		t.Errorf("unexpected box: %+v", box)
	}
	if lat < 45.243 || lat > 45.291 || lon < 78.445 || lon > 78.491 {
		t.Errorf("centroid outside box: (%f, %f)", lat, lon)
	}

	if _, _, _, err := FromGeoJSON(filepath.Join(t.TempDir(), "missing.geojson")); err == nil {
		t.Error("expected error for missing file")
	}
}
