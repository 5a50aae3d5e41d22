package mosaic

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/schollz/progressbar/v3"
	"github.com/skyterra/crop-pipeline/internal/geo"
)

// CoordinatesFileName is the conventional name of the bounding box file
// inside an assembly root directory.
const CoordinatesFileName = "coordinates.txt"

// Options configure one mosaic assembly.
type Options struct {
	// Root holds one subdirectory per time period.
	Root string
	// Output is the path of the mosaic to write.
	Output string
	// Periods defaults to DefaultPeriods.
	Periods []string
	// Bands defaults to DefaultBands.
	Bands []string
	// BBox clips the output. When nil, Root/coordinates.txt is used if
	// present, otherwise the full extent of the first period.
	BBox *geo.BoundingBox
	// Quiet suppresses the progress bar.
	Quiet bool
}

// Assemble stitches the time-period band files under opts.Root into a
// single multi-band mosaic. Band order is (period, band) lexicographic
// and every band carries a "{period}_{band}" description. The output is
// written to a temporary path and renamed only after every band has been
// copied, so a failed assembly never leaves a partial mosaic behind.
func Assemble(opts Options) error {
	registerDrivers()

	if len(opts.Periods) == 0 {
		opts.Periods = DefaultPeriods
	}
	if len(opts.Bands) == 0 {
		opts.Bands = DefaultBands
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	bbox, err := resolveBBox(opts)
	if err != nil {
		return err
	}

	periods, err := Discover(opts.Root, opts.Periods, opts.Bands)
	if err != nil {
		return err
	}

	if err := checkSharedCRS(periods); err != nil {
		return err
	}

	windows, outGT, err := computeWindows(periods, bbox)
	if err != nil {
		return err
	}

	ref := periods[0].Bands[0]
	outWidth := windows[0].Width
	outHeight := windows[0].Height
	bandCount := len(periods) * len(opts.Bands)

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmpPath := opts.Output + ".tmp"
	dst, err := godal.Create(godal.GTiff, tmpPath, bandCount, ref.DataType, outWidth, outHeight,
		godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return fmt.Errorf("failed to create output raster: %w", err)
	}
	cleanup := func() {
		dst.Close()
		os.Remove(tmpPath)
	}

	if err := dst.SetGeoTransform(outGT); err != nil {
		cleanup()
		return fmt.Errorf("failed to set output geotransform: %w", err)
	}
	sr, err := godal.NewSpatialRefFromWKT(ref.WKT)
	if err != nil {
		cleanup()
		return fmt.Errorf("failed to parse output CRS: %w", err)
	}
	defer sr.Close()
	if err := dst.SetSpatialRef(sr); err != nil {
		cleanup()
		return fmt.Errorf("failed to set output CRS: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !opts.Quiet {
		bar = progressbar.Default(int64(bandCount), "Assembling mosaic")
	}

	dstBands := dst.Bands()
	bandIdx := 0
	for pi, period := range periods {
		for _, bf := range period.Bands {
			label := fmt.Sprintf("%s_%s", period.Name, bf.Band)
			if err := copyBand(bf, windows[pi], dstBands[bandIdx], label); err != nil {
				cleanup()
				return fmt.Errorf("failed to copy band %s: %w", label, err)
			}
			bandIdx++
			if bar != nil {
				bar.Add(1)
			}
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize output raster: %w", err)
	}
	if err := os.Rename(tmpPath, opts.Output); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func resolveBBox(opts Options) (*geo.BoundingBox, error) {
	if opts.BBox != nil {
		if err := opts.BBox.Validate(); err != nil {
			return nil, err
		}
		return opts.BBox, nil
	}
	coordsPath := filepath.Join(opts.Root, CoordinatesFileName)
	if _, err := os.Stat(coordsPath); err != nil {
		return nil, nil
	}
	bbox, err := geo.ParseCoordinatesFile(coordsPath)
	if err != nil {
		return nil, err
	}
	return &bbox, nil
}

func checkSharedCRS(periods []TimePeriod) error {
	ref := periods[0].Bands[0]
	for _, period := range periods[1:] {
		bf := period.Bands[0]
		same, err := sameCRS(ref.WKT, bf.WKT)
		if err != nil {
			return err
		}
		if !same {
			return &InconsistentGridError{
				Period: period.Name,
				Detail: fmt.Sprintf("CRS differs from period %s", periods[0].Name),
			}
		}
		if bf.DataType != ref.DataType {
			return &InconsistentGridError{
				Period: period.Name,
				Detail: fmt.Sprintf("data type %s differs from period %s (%s)", bf.DataType, periods[0].Name, ref.DataType),
			}
		}
	}
	return nil
}

// computeWindows returns one pixel window per period, all the same size,
// plus the affine transform of the output grid.
func computeWindows(periods []TimePeriod, bbox *geo.BoundingBox) ([]Window, [6]float64, error) {
	ref := periods[0].Bands[0]

	if bbox == nil {
		// Full extent: every period must match the first period's grid
		// exactly, otherwise the bands cannot stay pixel aligned.
		for _, period := range periods[1:] {
			bf := period.Bands[0]
			if bf.Width != ref.Width || bf.Height != ref.Height || bf.GeoTransform != ref.GeoTransform {
				return nil, [6]float64{}, &GridMismatchError{
					Period: period.Name,
					Detail: fmt.Sprintf("grid differs from period %s and no bounding box was supplied", periods[0].Name),
				}
			}
		}
		windows := make([]Window, len(periods))
		for i := range windows {
			windows[i] = Window{Col: 0, Row: 0, Width: ref.Width, Height: ref.Height}
		}
		return windows, ref.GeoTransform, nil
	}

	minX, minY, maxX, maxY, err := reprojectBBox(*bbox, ref.WKT)
	if err != nil {
		return nil, [6]float64{}, err
	}

	windows := make([]Window, len(periods))
	for i, period := range periods {
		bf := period.Bands[0]
		if bf.GeoTransform[1] != ref.GeoTransform[1] || bf.GeoTransform[5] != ref.GeoTransform[5] {
			return nil, [6]float64{}, &GridMismatchError{
				Period: period.Name,
				Detail: fmt.Sprintf("pixel size differs from period %s", periods[0].Name),
			}
		}
		w, ok, err := clipWindow(bf.GeoTransform, bf.Width, bf.Height, minX, minY, maxX, maxY)
		if err != nil {
			return nil, [6]float64{}, err
		}
		if !ok {
			return nil, [6]float64{}, &EmptyClipError{Period: period.Name}
		}
		windows[i] = w
	}

	for i, w := range windows[1:] {
		if w.Width != windows[0].Width || w.Height != windows[0].Height {
			return nil, [6]float64{}, &GridMismatchError{
				Period: periods[i+1].Name,
				Detail: fmt.Sprintf("clip window %dx%d differs from period %s window %dx%d",
					w.Width, w.Height, periods[0].Name, windows[0].Width, windows[0].Height),
			}
		}
	}

	return windows, windowTransform(ref.GeoTransform, windows[0]), nil
}

// reprojectBBox transforms a WGS84 bounding box into the raster CRS with
// a datum-aware coordinate transform and returns its envelope.
func reprojectBBox(bbox geo.BoundingBox, wkt string) (minX, minY, maxX, maxY float64, err error) {
	src, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to create WGS84 CRS: %w", err)
	}
	defer src.Close()
	dst, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to parse raster CRS: %w", err)
	}
	defer dst.Close()

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to create coordinate transform: %w", err)
	}
	defer tr.Close()

	// All four corners: a rectangle in geodetic coordinates is not a
	// rectangle in a projected CRS.
	xs := []float64{bbox.SWLon, bbox.NELon, bbox.SWLon, bbox.NELon}
	ys := []float64{bbox.SWLat, bbox.SWLat, bbox.NELat, bbox.NELat}
	if err := tr.TransformEx(xs, ys, nil, nil); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to reproject bounding box: %w", err)
	}

	minX, maxX = xs[0], xs[0]
	minY, maxY = ys[0], ys[0]
	for i := 1; i < 4; i++ {
		if xs[i] < minX {
			minX = xs[i]
		}
		if xs[i] > maxX {
			maxX = xs[i]
		}
		if ys[i] < minY {
			minY = ys[i]
		}
		if ys[i] > maxY {
			maxY = ys[i]
		}
	}
	return minX, minY, maxX, maxY, nil
}

// copyBand copies the window of a source band file into dst verbatim and
// tags it with the composite period_band label.
func copyBand(bf BandFile, w Window, dst godal.Band, label string) error {
	src, err := openRaster(bf.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	srcBand := src.Bands()[0]
	if err := copyPixels(srcBand, dst, bf.DataType, w); err != nil {
		return err
	}

	if err := dst.SetMetadata("DESCRIPTION", label); err != nil {
		return fmt.Errorf("failed to set band description: %w", err)
	}
	if bf.HasNoData {
		if err := dst.SetNoData(bf.NoData); err != nil {
			return fmt.Errorf("failed to set nodata: %w", err)
		}
	}
	return nil
}

// copyPixels reads the source window and writes it at the output origin
// without any resampling or type conversion.
func copyPixels(src, dst godal.Band, dt godal.DataType, w Window) error {
	switch dt {
	case godal.Byte:
		return transfer(src, dst, w, make([]uint8, w.Width*w.Height))
	case godal.UInt16:
		return transfer(src, dst, w, make([]uint16, w.Width*w.Height))
	case godal.Int16:
		return transfer(src, dst, w, make([]int16, w.Width*w.Height))
	case godal.UInt32:
		return transfer(src, dst, w, make([]uint32, w.Width*w.Height))
	case godal.Int32:
		return transfer(src, dst, w, make([]int32, w.Width*w.Height))
	case godal.Float32:
		return transfer(src, dst, w, make([]float32, w.Width*w.Height))
	case godal.Float64:
		return transfer(src, dst, w, make([]float64, w.Width*w.Height))
	default:
		return fmt.Errorf("unsupported pixel data type %s", dt)
	}
}

func transfer[T any](src, dst godal.Band, w Window, buf []T) error {
	if err := src.Read(w.Col, w.Row, buf, w.Width, w.Height); err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	if err := dst.Write(0, 0, buf, w.Width, w.Height); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}
