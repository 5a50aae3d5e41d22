// Command assemble stitches time-period band directories into a single
// multi-band GeoTIFF without the interactive menu, for scripted use.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/skyterra/crop-pipeline/internal/geo"
	"github.com/skyterra/crop-pipeline/internal/mosaic"
)

func main() {
	root := flag.String("root", "", "directory holding one subdirectory per time period")
	out := flag.String("out", "", "output GeoTIFF path")
	periods := flag.String("periods", strings.Join(mosaic.DefaultPeriods, ","), "comma-separated time period names")
	bands := flag.String("bands", strings.Join(mosaic.DefaultBands, ","), "comma-separated band codes")
	bboxFlag := flag.String("bbox", "", "clip bounds as swlat,swlon,nelat,nelon (default coordinates.txt, then full extent)")
	geojsonFlag := flag.String("geojson", "", "clip to the bounding box of a GeoJSON file")
	quiet := flag.Bool("quiet", false, "suppress the progress bar")

	flag.Parse()

	if *root == "" {
		log.Fatal(fmt.Errorf("-root required"))
	}
	if *out == "" {
		log.Fatal(fmt.Errorf("-out required"))
	}

	var bbox *geo.BoundingBox
	switch {
	case *bboxFlag != "" && *geojsonFlag != "":
		log.Fatal(fmt.Errorf("-bbox and -geojson are mutually exclusive"))
	case *bboxFlag != "":
		b, err := parseBBoxFlag(*bboxFlag)
		if err != nil {
			log.Fatal(err)
		}
		bbox = &b
	case *geojsonFlag != "":
		b, _, _, err := geo.FromGeoJSON(*geojsonFlag)
		if err != nil {
			log.Fatal(err)
		}
		bbox = &b
	}

	start := time.Now()
	err := mosaic.Assemble(mosaic.Options{
		Root:    *root,
		Output:  *out,
		Periods: splitList(*periods),
		Bands:   splitList(*bands),
		BBox:    bbox,
		Quiet:   *quiet,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Assembled %s in %s\n", *out, time.Since(start).Round(time.Millisecond))
}

func parseBBoxFlag(s string) (geo.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("invalid -bbox %q: want swlat,swlon,nelat,nelon", s)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%f", &vals[i]); err != nil {
			return geo.BoundingBox{}, fmt.Errorf("invalid -bbox component %q", part)
		}
	}
	b := geo.BoundingBox{SWLat: vals[0], SWLon: vals[1], NELat: vals[2], NELon: vals[3]}
	if err := b.Validate(); err != nil {
		return geo.BoundingBox{}, err
	}
	return b, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
