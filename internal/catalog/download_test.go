package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDownloaderFetchBands(t *testing.T) {
	var mu sync.Mutex
	served := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		mu.Lock()
		served[r.URL.Path]++
		mu.Unlock()
		w.Write([]byte("tiff-bytes-" + filepath.Base(r.URL.Path)))
	}))
	defer server.Close()

	granule := Granule{
		GranuleUR: "HLS.S30.T22KGA.2024010T133221",
		RelatedUrls: []RelatedURL{
			{URL: server.URL + "/HLS.v2.0.B02.tif", Type: "GET DATA"},
			{URL: server.URL + "/HLS.v2.0.B03.tif", Type: "GET DATA"},
		},
	}

	d, err := NewDownloader("test-token")
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	dest := t.TempDir()
	if err := d.FetchBands(context.Background(), granule, []string{"B02", "B03"}, dest, true); err != nil {
		t.Fatalf("FetchBands: %v", err)
	}

	for _, band := range []string{"B02", "B03"} {
		data, err := os.ReadFile(filepath.Join(dest, band+".tif"))
		if err != nil {
			t.Fatalf("read %s: %v", band, err)
		}
		want := "tiff-bytes-HLS.v2.0." + band + ".tif"
		if string(data) != want {
			t.Errorf("%s content = %q, want %q", band, data, want)
		}
	}

	// A second run must not hit the server again.
	if err := d.FetchBands(context.Background(), granule, []string{"B02", "B03"}, dest, true); err != nil {
		t.Fatalf("second FetchBands: %v", err)
	}
	for path, hits := range served {
		if hits != 1 {
			t.Errorf("%s served %d times, want 1", path, hits)
		}
	}
}

func TestDownloaderMissingBandURL(t *testing.T) {
	d, err := NewDownloader("test-token")
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	granule := Granule{GranuleUR: "g"}
	err = d.FetchBands(context.Background(), granule, []string{"B02"}, t.TempDir(), true)
	if err == nil {
		t.Fatal("expected error for granule without band URL")
	}
}

func TestNewDownloaderRequiresToken(t *testing.T) {
	t.Setenv("EARTHDATA_TOKEN", "")
	if _, err := NewDownloader(""); err == nil {
		t.Fatal("expected error when no token is configured")
	}

	t.Setenv("EARTHDATA_TOKEN", "from-env")
	if _, err := NewDownloader(""); err != nil {
		t.Fatalf("NewDownloader with env token: %v", err)
	}
}
