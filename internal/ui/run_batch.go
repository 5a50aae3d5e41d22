package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/skyterra/crop-pipeline/internal/catalog"
	"github.com/skyterra/crop-pipeline/internal/delivery"
	"github.com/skyterra/crop-pipeline/internal/properties"
)

// RunBatch handles the UI for processing a CSV of fields
func RunBatch() {
	PrintWarning("The CSV file needs the columns 'Polygon Number', 'Y Coordinate', 'X Coordinate' and 'Class'.\nRows with coordinates out of range are skipped.")

	csvPath := ReadString("Enter the CSV file path: ")
	if csvPath == "" {
		PrintError("CSV path cannot be empty")
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

	limit, err := ReadInt("Enter the maximum number of fields to process (0 for all): ", 0, 1000000)
	if err != nil {
		PrintError(err.Error())
		return
	}

	order := delivery.OrderForward
	switch ReadString("Processing order, [f]orward, [b]ackward or [r]andom (default f): ") {
	case "b":
		order = delivery.OrderBackward
	case "r":
		order = delivery.OrderRandom
	}

	downloader, err := catalog.NewDownloader("")
	if err != nil {
		PrintError(err.Error())
		return
	}

	pipeline := delivery.NewPipeline(catalog.NewClient("", 30*time.Second), downloader)
	report, err := pipeline.RunBatch(context.Background(), delivery.BatchOptions{
		CSVPath:    csvPath,
		OutputRoot: filepath.Join(properties.RootPath(), "fields"),
		HalfWidth:  halfWidth,
		Start:      startDate,
		End:        endDate,
		Order:      order,
		Limit:      limit,
		Notify:     true,
	})
	if err != nil {
		PrintError(fmt.Sprintf("Batch failed: %s", err.Error()))
		return
	}

	if report.Failed > 0 {
		PrintWarning(report.String())
		for _, failure := range report.Failures {
			fmt.Printf("%s- %s%s\n", ColorYellow, failure, ColorReset)
		}
		return
	}
	PrintSuccess(report.String())
}
