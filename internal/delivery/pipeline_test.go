package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/skyterra/crop-pipeline/internal/catalog"
	"github.com/skyterra/crop-pipeline/internal/mosaic"
)

// fixtureGT matches a one degree square at (-53, -23) with 0.01 degree
// pixels, so a bbox centred at (-23.35, -52.65) lands inside it.
var fixtureGT = [6]float64{-53, 0.01, 0, -23, 0, -0.01}

func writeFixtureRaster(t *testing.T, path string, fill uint16) {
	t.Helper()
	godal.RegisterAll()

	ds, err := godal.Create(godal.GTiff, path, 1, godal.UInt16, 100, 100)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer ds.Close()
	if err := ds.SetGeoTransform(fixtureGT); err != nil {
		t.Fatalf("set geotransform: %v", err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		t.Fatalf("create CRS: %v", err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		t.Fatalf("set CRS: %v", err)
	}
	buf := make([]uint16, 100*100)
	for i := range buf {
		buf[i] = fill
	}
	if err := ds.Bands()[0].Write(0, 0, buf, 100, 100); err != nil {
		t.Fatalf("write pixels: %v", err)
	}
}

// newFixtureServer serves a CMR search endpoint plus the band files it
// advertises.
func newFixtureServer(t *testing.T, bands []string) *httptest.Server {
	t.Helper()
	fixtureDir := t.TempDir()
	for i, band := range bands {
		writeFixtureRaster(t, filepath.Join(fixtureDir, "HLS.fixture."+band+".tif"), uint16(100*(i+1)))
	}

	mux := http.NewServeMux()
	mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(fixtureDir))))

	var server *httptest.Server
	mux.HandleFunc("/granules.umm_json", func(w http.ResponseWriter, r *http.Request) {
		urls := ""
		for _, band := range bands {
			urls += fmt.Sprintf(`{"URL": "%s/files/HLS.fixture.%s.tif", "Type": "GET DATA"},`, server.URL, band)
		}
		urls = urls[:len(urls)-1]
		fmt.Fprintf(w, `{"hits": 1, "took": 1, "items": [{"umm": {
			"GranuleUR": "HLS.fixture",
			"TemporalExtent": {"RangeDateTime": {"BeginningDateTime": "2024-01-10T13:00:00.000Z", "EndingDateTime": "2024-01-10T13:01:00.000Z"}},
			"CloudCover": 7.0,
			"RelatedUrls": [%s]
		}}]}`, urls)
	})
	server = httptest.NewServer(mux)
	return server
}

func TestPipelineRun(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())

	bands := []string{"B02", "B03"}
	server := newFixtureServer(t, bands)
	defer server.Close()

	client := catalog.NewClient(server.URL, 10*time.Second)
	downloader, err := catalog.NewDownloader("test-token")
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	workDir := t.TempDir()
	opts := PipelineOptions{
		WorkDir:   workDir,
		CenterLat: -23.35,
		CenterLon: -52.65,
		HalfWidth: 0.15,
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Bands:     bands,
		Quiet:     true,
	}

	p := NewPipeline(client, downloader)
	if err := p.Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	output := filepath.Join(workDir, OutputFileName)
	ds, err := godal.Open(output)
	if err != nil {
		t.Fatalf("open mosaic: %v", err)
	}
	defer ds.Close()

	st := ds.Structure()
	wantBands := len(mosaic.DefaultPeriods) * len(bands)
	if st.NBands != wantBands {
		t.Fatalf("band count = %d, want %d", st.NBands, wantBands)
	}
	if st.SizeX != 30 || st.SizeY != 30 {
		t.Fatalf("output size = %dx%d, want 30x30", st.SizeX, st.SizeY)
	}

	// The per-period directories end up organized by band name.
	for _, period := range mosaic.DefaultPeriods {
		for _, band := range bands {
			path := filepath.Join(workDir, "organized", period, band+".tif")
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing organized band file %s: %v", path, err)
			}
		}
	}

	// A second run must short-circuit on the existing mosaic.
	before, err := os.Stat(output)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background(), opts); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	after, err := os.Stat(output)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("second run rewrote the mosaic")
	}
}

func TestPipelineRunRejectsShortRange(t *testing.T) {
	p := NewPipeline(catalog.NewClient("http://unused.invalid", time.Second), &catalog.Downloader{})
	err := p.Run(context.Background(), PipelineOptions{
		WorkDir:   t.TempDir(),
		CenterLat: -23.35,
		CenterLon: -52.65,
		HalfWidth: 0.15,
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("expected error for range under two days")
	}
}
