package mosaic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
)

// DefaultBands are the HLS Sentinel-2 reflectance bands used as
// crop-classification model input.
var DefaultBands = []string{"B02", "B03", "B04", "B8A", "B11", "B12"}

// DefaultPeriods are the conventional time period folder names.
var DefaultPeriods = []string{"t0", "t1", "t2"}

var driversOnce sync.Once

func registerDrivers() {
	driversOnce.Do(godal.RegisterAll)
}

// BandFile is a single-band raster on disk.
type BandFile struct {
	Path         string
	Band         string
	Width        int
	Height       int
	GeoTransform [6]float64
	WKT          string
	DataType     godal.DataType
	NoData       float64
	HasNoData    bool
}

// TimePeriod is a named acquisition with one BandFile per declared band,
// in declared band order. All band files of one period share the same
// pixel grid and CRS.
type TimePeriod struct {
	Name  string
	Bands []BandFile
}

func openRaster(path string) (*godal.Dataset, error) {
	return godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	}))
}

// Discover scans root for one subdirectory per period, each holding one
// raster per band code matched by filename substring.
func Discover(root string, periods, bands []string) ([]TimePeriod, error) {
	registerDrivers()

	if len(periods) == 0 {
		return nil, fmt.Errorf("at least one time period is required")
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("at least one band is required")
	}
	if _, err := os.Stat(root); err != nil {
		return nil, &NotFoundError{Path: root}
	}

	result := make([]TimePeriod, 0, len(periods))
	for _, period := range periods {
		dir := filepath.Join(root, period)
		if _, err := os.Stat(dir); err != nil {
			return nil, &NotFoundError{Path: dir}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read period directory %s: %w", dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		tp := TimePeriod{Name: period}
		for _, band := range bands {
			match := findBandFile(names, band)
			if match == "" {
				return nil, &MissingBandError{Period: period, Band: band}
			}
			bf, err := readBandFile(filepath.Join(dir, match), band)
			if err != nil {
				return nil, fmt.Errorf("failed to read band %s of period %s: %w", band, period, err)
			}
			tp.Bands = append(tp.Bands, bf)
		}

		if err := checkPeriodConsistency(tp); err != nil {
			return nil, err
		}
		result = append(result, tp)
	}

	return result, nil
}

// findBandFile returns the first lexical filename containing the band
// code with a .tif or .tiff extension.
func findBandFile(names []string, band string) string {
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".tif" && ext != ".tiff" {
			continue
		}
		if strings.Contains(name, band) {
			return name
		}
	}
	return ""
}

func readBandFile(path, band string) (BandFile, error) {
	ds, err := openRaster(path)
	if err != nil {
		return BandFile{}, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return BandFile{}, fmt.Errorf("raster %s has no geotransform: %w", path, err)
	}

	sr := ds.SpatialRef()
	defer sr.Close()
	wkt, err := sr.WKT()
	if err != nil {
		return BandFile{}, fmt.Errorf("failed to read CRS of %s: %w", path, err)
	}

	structure := ds.Structure()
	srcBand := ds.Bands()[0]
	nodata, hasNoData := srcBand.NoData()

	return BandFile{
		Path:         path,
		Band:         band,
		Width:        structure.SizeX,
		Height:       structure.SizeY,
		GeoTransform: gt,
		WKT:          wkt,
		DataType:     srcBand.Structure().DataType,
		NoData:       nodata,
		HasNoData:    hasNoData,
	}, nil
}

func checkPeriodConsistency(tp TimePeriod) error {
	ref := tp.Bands[0]
	for _, bf := range tp.Bands[1:] {
		if bf.Width != ref.Width || bf.Height != ref.Height {
			return &InconsistentGridError{
				Period: tp.Name,
				Detail: fmt.Sprintf("band %s is %dx%d, band %s is %dx%d",
					ref.Band, ref.Width, ref.Height, bf.Band, bf.Width, bf.Height),
			}
		}
		if bf.GeoTransform != ref.GeoTransform {
			return &InconsistentGridError{
				Period: tp.Name,
				Detail: fmt.Sprintf("band %s geotransform differs from band %s", bf.Band, ref.Band),
			}
		}
		if bf.DataType != ref.DataType {
			return &InconsistentGridError{
				Period: tp.Name,
				Detail: fmt.Sprintf("band %s is %s, band %s is %s",
					ref.Band, ref.DataType, bf.Band, bf.DataType),
			}
		}
		same, err := sameCRS(ref.WKT, bf.WKT)
		if err != nil {
			return err
		}
		if !same {
			return &InconsistentGridError{
				Period: tp.Name,
				Detail: fmt.Sprintf("band %s CRS differs from band %s", bf.Band, ref.Band),
			}
		}
	}
	return nil
}

func sameCRS(wktA, wktB string) (bool, error) {
	if wktA == wktB {
		return true, nil
	}
	srA, err := godal.NewSpatialRefFromWKT(wktA)
	if err != nil {
		return false, fmt.Errorf("invalid CRS: %w", err)
	}
	defer srA.Close()
	srB, err := godal.NewSpatialRefFromWKT(wktB)
	if err != nil {
		return false, fmt.Errorf("invalid CRS: %w", err)
	}
	defer srB.Close()
	return srA.IsSame(srB), nil
}
