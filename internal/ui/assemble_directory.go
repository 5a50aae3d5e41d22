package ui

import (
	"fmt"

	"github.com/skyterra/crop-pipeline/internal/geo"
	"github.com/skyterra/crop-pipeline/internal/mosaic"
)

// AssembleDirectory handles the UI for assembling a mosaic from band
// files already on disk
func AssembleDirectory() {
	PrintWarning("The input directory should contain one folder per time period (t0, t1, t2),\neach holding one '.tif' file per band (B02, B03, B04, B8A, B11, B12).\nAn optional 'coordinates.txt' file ('sw <lat>,<lon>' / 'ne <lat>,<lon>') clips the output.")

	root := ReadString("Enter the input directory: ")
	if root == "" {
		PrintError("input directory cannot be empty")
		return
	}

	output := ReadString("Enter the output file path: ")
	if output == "" {
		PrintError("output path cannot be empty")
		return
	}

	var bbox *geo.BoundingBox
	if ReadString("Clip to a bounding box? (y/N): ") == "y" {
		swLat, swLon, err := ReadLatLon("Enter the southwest corner (lat,lon): ")
		if err != nil {
			PrintError(err.Error())
			return
		}
		neLat, neLon, err := ReadLatLon("Enter the northeast corner (lat,lon): ")
		if err != nil {
			PrintError(err.Error())
			return
		}
		bbox = &geo.BoundingBox{SWLat: swLat, SWLon: swLon, NELat: neLat, NELon: neLon}
	}

	if err := mosaic.Assemble(mosaic.Options{Root: root, Output: output, BBox: bbox}); err != nil {
		PrintError(fmt.Sprintf("Assembly failed: %s", err.Error()))
		return
	}

	PrintSuccess(fmt.Sprintf("Mosaic assembled at: %s", output))
}
