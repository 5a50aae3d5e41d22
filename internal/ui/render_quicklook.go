package ui

import (
	"fmt"
	"strings"

	"github.com/skyterra/crop-pipeline/internal/quicklook"
)

// RenderQuicklook handles the UI for rendering a true-color preview of
// an assembled mosaic
func RenderQuicklook() {
	mosaicPath := ReadString("Enter the mosaic file path: ")
	if mosaicPath == "" {
		PrintError("mosaic path cannot be empty")
		return
	}

	period := ReadString("Enter the time period to render (default t0): ")
	if period == "" {
		period = "t0"
	}

	outputPath := strings.TrimSuffix(mosaicPath, ".tif") + "_" + period + ".png"
	if err := quicklook.Render(mosaicPath, period, outputPath); err != nil {
		PrintError(fmt.Sprintf("Quicklook failed: %s", err.Error()))
		return
	}

	PrintSuccess(fmt.Sprintf("Quicklook written to: %s", outputPath))
}
