package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/skyterra/crop-pipeline/internal/catalog"
	"github.com/skyterra/crop-pipeline/internal/geo"
	"github.com/skyterra/crop-pipeline/internal/mosaic"
	"github.com/skyterra/crop-pipeline/internal/utils"
)

const (
	// searchWindowDays pads each target acquisition date on both sides
	// when querying the catalog.
	searchWindowDays = 3

	// OutputFileName is the mosaic written at the end of a pipeline run.
	OutputFileName = "assembled_18band.tif"
)

// PipelineOptions describe one field acquisition.
type PipelineOptions struct {
	// WorkDir receives downloads and the final mosaic.
	WorkDir string
	// CenterLat and CenterLon are the field center in WGS84.
	CenterLat float64
	CenterLon float64
	// HalfWidth is the half side of the square bounding box, in degrees.
	HalfWidth float64
	// Start and End bound the acquisition range. The range must span at
	// least two days so the time points are distinct.
	Start time.Time
	End   time.Time
	// Bands defaults to mosaic.DefaultBands.
	Bands []string
	// Quiet suppresses progress bars.
	Quiet bool
}

// Pipeline runs the full acquisition: search the catalog at each time
// point, download the best granule's bands, and assemble the mosaic.
type Pipeline struct {
	client     *catalog.Client
	downloader *catalog.Downloader
	logger     *slog.Logger
}

func NewPipeline(client *catalog.Client, downloader *catalog.Downloader) *Pipeline {
	return &Pipeline{
		client:     client,
		downloader: downloader,
		logger:     slog.Default(),
	}
}

// WithLogger sets a custom logger for the pipeline.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// Run executes the pipeline for one field. The mosaic is written to
// <WorkDir>/assembled_18band.tif; if that file already exists the run is
// a no-op so batch drivers can resume cheaply.
func (p *Pipeline) Run(ctx context.Context, opts PipelineOptions) error {
	output := filepath.Join(opts.WorkDir, OutputFileName)
	if _, err := os.Stat(output); err == nil {
		p.logger.InfoContext(ctx, "mosaic already assembled, skipping",
			slog.String("output", output),
		)
		return nil
	}

	if opts.End.Sub(opts.Start) < 48*time.Hour {
		return fmt.Errorf("acquisition range must span at least two days")
	}
	if len(opts.Bands) == 0 {
		opts.Bands = mosaic.DefaultBands
	}

	bbox, err := geo.FromCenter(opts.CenterLat, opts.CenterLon, opts.HalfWidth)
	if err != nil {
		return err
	}

	organizedRoot := filepath.Join(opts.WorkDir, "organized")
	targets := utils.EvenlySpacedDates(opts.Start, opts.End, len(mosaic.DefaultPeriods))
	for i, target := range targets {
		period := mosaic.DefaultPeriods[i]
		if err := p.fetchPeriod(ctx, bbox, target, opts.Bands, filepath.Join(organizedRoot, period), opts.Quiet); err != nil {
			return fmt.Errorf("period %s: %w", period, err)
		}
	}

	coordsPath := filepath.Join(organizedRoot, mosaic.CoordinatesFileName)
	if err := geo.WriteCoordinatesFile(coordsPath, bbox); err != nil {
		return err
	}

	if err := mosaic.Assemble(mosaic.Options{
		Root:   organizedRoot,
		Output: output,
		Bands:  opts.Bands,
		BBox:   &bbox,
		Quiet:  opts.Quiet,
	}); err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	p.logger.InfoContext(ctx, "pipeline finished",
		slog.String("output", output),
	)
	return nil
}

// fetchPeriod finds the clearest granule near target and downloads its
// bands into destDir.
func (p *Pipeline) fetchPeriod(ctx context.Context, bbox geo.BoundingBox, target time.Time, bands []string, destDir string, quiet bool) error {
	granules, err := p.client.Search(ctx, &catalog.SearchParams{
		BoundingBox: bbox.String(),
		Start:       target.AddDate(0, 0, -searchWindowDays),
		End:         target.AddDate(0, 0, searchWindowDays),
	})
	if err != nil {
		return fmt.Errorf("catalog search failed: %w", err)
	}
	if len(granules) == 0 {
		return fmt.Errorf("no granules found within %d days of %s", searchWindowDays, target.Format("2006-01-02"))
	}

	granule, err := catalog.BestGranule(granules, target)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "selected granule",
		slog.String("granule", granule.GranuleUR),
		slog.Float64("cloud_cover", granule.CloudCoverValue()),
		slog.String("target", target.Format("2006-01-02")),
	)

	return p.downloader.FetchBands(ctx, granule, bands, destDir, quiet)
}
