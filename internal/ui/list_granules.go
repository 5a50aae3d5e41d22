package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/skyterra/crop-pipeline/internal/catalog"
	"github.com/skyterra/crop-pipeline/internal/geo"
	"github.com/skyterra/crop-pipeline/internal/properties"
)

// ListGranules handles the UI for browsing catalog results for an area
// and date range
func ListGranules() {
	lat, lon, err := ReadLatLon("Enter the area center (lat,lon): ")
	if err != nil {
		PrintError(err.Error())
		return
	}

	halfWidth, err := ReadFloat("Enter the bounding box half width in degrees (e.g. 0.05): ")
	if err != nil {
		PrintError(err.Error())
		return
	}

	bbox, err := geo.FromCenter(lat, lon, halfWidth)
	if err != nil {
		PrintError(err.Error())
		return
	}

	startDate, endDate, err := ReadDateRange()
	if err != nil {
		PrintError(err.Error())
		return
	}

	client := catalog.NewClient("", 30*time.Second)
	granules, err := client.Search(context.Background(), &catalog.SearchParams{
		BoundingBox: bbox.String(),
		Start:       startDate,
		End:         endDate,
		PageSize:    properties.DefaultMaxResults(),
	})
	if err != nil {
		PrintError(fmt.Sprintf("Catalog search failed: %s", err.Error()))
		return
	}

	if len(granules) == 0 {
		PrintWarning("No granules found for the given area and date range.")
		return
	}

	fmt.Printf("\n%sFound %d granules:%s\n", ColorGreen, len(granules), ColorReset)
	for _, granule := range granules {
		acquired := "unknown date"
		if t, err := granule.StartTime(); err == nil && !t.IsZero() {
			acquired = t.Format("2006-01-02")
		}
		fmt.Printf("%s- %s  (%s, %.1f%% cloud)%s\n", ColorGreen, granule.GranuleUR, acquired, granule.CloudCoverValue(), ColorReset)
	}
}
