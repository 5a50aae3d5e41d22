// Package quicklook renders PNG previews of assembled mosaics.
package quicklook

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/airbusgeo/godal"
	"github.com/fogleman/gg"
)

// rgbBands are the red, green and blue reflectance bands of an HLS
// Sentinel-2 mosaic, in that order.
var rgbBands = [3]string{"B04", "B03", "B02"}

// Render writes a true-color PNG of one time period of a mosaic. Band
// slices are located through their period_band descriptions and each
// channel is stretched between its 2nd and 98th percentile.
func Render(mosaicPath, period, outputPath string) error {
	godal.RegisterAll()

	ds, err := godal.Open(mosaicPath, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	}))
	if err != nil {
		return fmt.Errorf("failed to open mosaic: %w", err)
	}
	defer ds.Close()

	st := ds.Structure()
	width, height := st.SizeX, st.SizeY

	var channels [3][]float64
	for i, band := range rgbBands {
		label := fmt.Sprintf("%s_%s", period, band)
		src, err := findBand(ds, label)
		if err != nil {
			return err
		}
		data := make([]float64, width*height)
		if err := src.Read(0, 0, data, width, height); err != nil {
			return fmt.Errorf("failed to read band %s: %w", label, err)
		}
		channels[i] = stretch(data)
	}

	dc := gg.NewContext(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			idx := row*width + col
			dc.SetRGB(channels[0][idx], channels[1][idx], channels[2][idx])
			dc.SetPixel(col, row)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save PNG: %w", err)
	}
	return nil
}

func findBand(ds *godal.Dataset, label string) (godal.Band, error) {
	for _, band := range ds.Bands() {
		if band.Metadata("DESCRIPTION") == label {
			return band, nil
		}
	}
	return godal.Band{}, fmt.Errorf("mosaic has no band labeled %s", label)
}

// stretch rescales values to [0, 1] between the 2nd and 98th percentile,
// clamping the tails.
func stretch(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	lo := percentile(sorted, 2)
	hi := percentile(sorted, 98)
	span := hi - lo
	if span == 0 {
		span = 1
	}

	out := make([]float64, len(data))
	for i, v := range data {
		s := (v - lo) / span
		out[i] = math.Min(1, math.Max(0, s))
	}
	return out
}

// percentile reads the p-th percentile from an ascending sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
