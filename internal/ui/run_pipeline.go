package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/skyterra/crop-pipeline/internal/catalog"
	"github.com/skyterra/crop-pipeline/internal/delivery"
	"github.com/skyterra/crop-pipeline/internal/notification"
	"github.com/skyterra/crop-pipeline/internal/properties"
)

// RunPipeline handles the UI for acquiring and assembling imagery for a
// single field
func RunPipeline() {
	PrintWarning("Downloads require an Earthdata bearer token in the EARTHDATA_TOKEN environment variable.")

	lat, lon, err := ReadLatLon("Enter the field center (lat,lon): ")
	if err != nil {
		PrintError(err.Error())
		return
	}

	halfWidth, err := ReadFloat("Enter the bounding box half width in degrees (e.g. 0.05): ")
	if err != nil {
		PrintError(err.Error())
		return
	}

	startDate, endDate, err := ReadDateRange()
	if err != nil {
		PrintError(err.Error())
		return
	}

	name := ReadString("Enter a name for the field work directory: ")
	if name == "" {
		PrintError("field name cannot be empty")
		return
	}
	workDir := filepath.Join(properties.RootPath(), "fields", name)

	downloader, err := catalog.NewDownloader("")
	if err != nil {
		PrintError(err.Error())
		return
	}

	pipeline := delivery.NewPipeline(catalog.NewClient("", 30*time.Second), downloader)
	if err := pipeline.Run(context.Background(), delivery.PipelineOptions{
		WorkDir:   workDir,
		CenterLat: lat,
		CenterLon: lon,
		HalfWidth: halfWidth,
		Start:     startDate,
		End:       endDate,
	}); err != nil {
		PrintError(fmt.Sprintf("Pipeline failed: %s", err.Error()))
		notification.SendDiscordErrorNotification(fmt.Sprintf("Pipeline failed for field %s: %s", name, err.Error()))
		return
	}

	output := filepath.Join(workDir, delivery.OutputFileName)
	PrintSuccess(fmt.Sprintf("Mosaic assembled at: %s", output))
	notification.SendDiscordSuccessNotification(fmt.Sprintf("Mosaic assembled for field %s at %s", name, output))
}
