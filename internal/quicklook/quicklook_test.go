package quicklook

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
)

func TestStretch(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i)
	}

	out := stretch(data)
	if out[0] != 0 {
		t.Errorf("low tail = %f, want 0", out[0])
	}
	if out[99] != 1 {
		t.Errorf("high tail = %f, want 1", out[99])
	}
	mid := out[50]
	if math.Abs(mid-0.5) > 0.02 {
		t.Errorf("midpoint = %f, want near 0.5", mid)
	}
}

func TestStretchConstantInput(t *testing.T) {
	data := []float64{7, 7, 7, 7}
	out := stretch(data)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %f, want 0 for constant input", i, v)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{0, 10, 20, 30, 40}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 0},
		{50, 20},
		{100, 40},
		{25, 10},
	}
	for _, tc := range tests {
		if got := percentile(sorted, tc.p); got != tc.want {
			t.Errorf("percentile(%v) = %f, want %f", tc.p, got, tc.want)
		}
	}
}

func TestRender(t *testing.T) {
	godal.RegisterAll()

	mosaicPath := filepath.Join(t.TempDir(), "mosaic.tif")
	bands := []string{"B02", "B03", "B04"}
	ds, err := godal.Create(godal.GTiff, mosaicPath, len(bands), godal.UInt16, 8, 8)
	if err != nil {
		t.Fatalf("create mosaic: %v", err)
	}
	if err := ds.SetGeoTransform([6]float64{-53, 0.01, 0, -23, 0, -0.01}); err != nil {
		t.Fatalf("set geotransform: %v", err)
	}
	for i, band := range bands {
		buf := make([]uint16, 8*8)
		for j := range buf {
			buf[j] = uint16(j * (i + 1))
		}
		b := ds.Bands()[i]
		if err := b.Write(0, 0, buf, 8, 8); err != nil {
			t.Fatalf("write band: %v", err)
		}
		if err := b.SetMetadata("DESCRIPTION", "t0_"+band); err != nil {
			t.Fatalf("set description: %v", err)
		}
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("close mosaic: %v", err)
	}

	outputPath := filepath.Join(t.TempDir(), "quicklook.png")
	if err := Render(mosaicPath, "t0", outputPath); err != nil {
		t.Fatalf("Render: %v", err)
	}

	f, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("open PNG: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("PNG size = %dx%d, want 8x8", b.Dx(), b.Dy())
	}
}

func TestRenderMissingPeriod(t *testing.T) {
	godal.RegisterAll()

	mosaicPath := filepath.Join(t.TempDir(), "mosaic.tif")
	ds, err := godal.Create(godal.GTiff, mosaicPath, 1, godal.UInt16, 4, 4)
	if err != nil {
		t.Fatalf("create mosaic: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatal(err)
	}

	if err := Render(mosaicPath, "t9", filepath.Join(t.TempDir(), "out.png")); err == nil {
		t.Fatal("expected error for unknown period")
	}
}
