package mosaic

import (
	"fmt"
	"math"
)

// Window is a whole-pixel region of a raster grid.
type Window struct {
	Col    int
	Row    int
	Width  int
	Height int
}

// clipWindow maps projected bounds onto a north-up pixel grid. Fractional
// pixel boundaries are rounded outward so no requested data is lost, then
// clipped to the raster extent. ok is false when the bounds do not
// intersect the raster at all.
func clipWindow(gt [6]float64, width, height int, minX, minY, maxX, maxY float64) (w Window, ok bool, err error) {
	if gt[2] != 0 || gt[4] != 0 {
		return Window{}, false, fmt.Errorf("rotated rasters are not supported")
	}
	if gt[1] <= 0 || gt[5] >= 0 {
		return Window{}, false, fmt.Errorf("unexpected pixel size (%f, %f): expected east-positive, north-up grid", gt[1], gt[5])
	}

	// Columns grow eastward, rows grow southward (gt[5] < 0).
	c0 := (minX - gt[0]) / gt[1]
	c1 := (maxX - gt[0]) / gt[1]
	r0 := (maxY - gt[3]) / gt[5]
	r1 := (minY - gt[3]) / gt[5]

	col0 := int(math.Floor(math.Min(c0, c1)))
	col1 := int(math.Ceil(math.Max(c0, c1)))
	row0 := int(math.Floor(math.Min(r0, r1)))
	row1 := int(math.Ceil(math.Max(r0, r1)))

	if col0 < 0 {
		col0 = 0
	}
	if row0 < 0 {
		row0 = 0
	}
	if col1 > width {
		col1 = width
	}
	if row1 > height {
		row1 = height
	}

	if col1 <= col0 || row1 <= row0 {
		return Window{}, false, nil
	}
	return Window{Col: col0, Row: row0, Width: col1 - col0, Height: row1 - row0}, true, nil
}

// windowTransform recomputes the affine transform for a window of a grid.
func windowTransform(gt [6]float64, w Window) [6]float64 {
	return [6]float64{
		gt[0] + float64(w.Col)*gt[1],
		gt[1],
		0,
		gt[3] + float64(w.Row)*gt[5],
		0,
		gt[5],
	}
}
