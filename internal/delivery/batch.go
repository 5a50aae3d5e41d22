package delivery

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"
	"github.com/skyterra/crop-pipeline/internal/notification"
)

// FieldRow is one field in the batch input CSV.
type FieldRow struct {
	Polygon int     `csv:"Polygon Number"`
	Lat     float64 `csv:"Y Coordinate"`
	Lon     float64 `csv:"X Coordinate"`
	Class   string  `csv:"Class"`
}

// BatchOrder controls the processing order of the CSV rows.
type BatchOrder string

const (
	OrderForward  BatchOrder = "forward"
	OrderBackward BatchOrder = "backward"
	OrderRandom   BatchOrder = "random"
)

// BatchOptions configure one batch run over a field CSV.
type BatchOptions struct {
	// CSVPath is the field list.
	CSVPath string
	// OutputRoot receives one work directory per field, named by class
	// and polygon number.
	OutputRoot string
	// HalfWidth is the bounding box half side in degrees.
	HalfWidth float64
	// Start and End bound the acquisition range of every field.
	Start time.Time
	End   time.Time
	// Bands defaults to mosaic.DefaultBands.
	Bands []string
	// Order defaults to OrderForward.
	Order BatchOrder
	// Limit caps the number of fields processed; zero means all.
	Limit int
	// Workers is the parallel field count, default 1.
	Workers int
	// ItemTimeout bounds one field's pipeline run; zero means no limit.
	ItemTimeout time.Duration
	// Notify sends Discord webhooks on completion and fatal errors.
	Notify bool
	Quiet  bool
}

// BatchReport summarizes a finished batch run.
type BatchReport struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Failures  []string
	Elapsed   time.Duration
}

func (r *BatchReport) String() string {
	return fmt.Sprintf("%d fields: %d succeeded, %d skipped (invalid), %d failed in %s",
		r.Total, r.Succeeded, r.Skipped, r.Failed, r.Elapsed.Round(time.Second))
}

// RunBatch processes every field in the CSV through the pipeline.
func (p *Pipeline) RunBatch(ctx context.Context, opts BatchOptions) (*BatchReport, error) {
	file, err := os.Open(opts.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open field CSV: %w", err)
	}
	defer file.Close()

	var rows []*FieldRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse field CSV: %w", err)
	}

	report := &BatchReport{}
	valid := make([]*FieldRow, 0, len(rows))
	for _, row := range rows {
		if row.Lat < -90 || row.Lat > 90 || row.Lon < -180 || row.Lon > 180 {
			report.Skipped++
			fmt.Printf("Skipping polygon %d: coordinates (%f, %f) out of range\n", row.Polygon, row.Lat, row.Lon)
			continue
		}
		valid = append(valid, row)
	}

	orderRows(valid, opts.Order)
	if opts.Limit > 0 && opts.Limit < len(valid) {
		valid = valid[:opts.Limit]
	}
	// Total counts only what this run accounts for, so the succeeded,
	// skipped and failed figures always sum to it even under Limit.
	report.Total = len(valid) + report.Skipped

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	var bar *progressbar.ProgressBar
	if !opts.Quiet {
		bar = progressbar.Default(int64(len(valid)), "Processing fields")
	}

	start := time.Now()
	var mu sync.Mutex
	wp := workerpool.New(workers)
	for _, row := range valid {
		row := row
		wp.Submit(func() {
			err := p.runField(ctx, row, opts)
			mu.Lock()
			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, fmt.Sprintf("polygon %d: %v", row.Polygon, err))
			} else {
				report.Succeeded++
			}
			mu.Unlock()
			if bar != nil {
				bar.Add(1)
			}
		})
	}
	wp.StopWait()
	if bar != nil {
		bar.Finish()
	}
	report.Elapsed = time.Since(start)

	if opts.Notify {
		msg := report.String()
		if len(report.Failures) > 0 {
			msg += "\nFailures:\n" + strings.Join(report.Failures, "\n")
			if err := notification.SendDiscordErrorNotification(msg); err != nil {
				fmt.Printf("Failed to send Discord notification: %v\n", err)
			}
		} else {
			if err := notification.SendDiscordSuccessNotification(msg); err != nil {
				fmt.Printf("Failed to send Discord notification: %v\n", err)
			}
		}
	}

	return report, nil
}

func (p *Pipeline) runField(ctx context.Context, row *FieldRow, opts BatchOptions) error {
	if opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ItemTimeout)
		defer cancel()
	}

	workDir := filepath.Join(opts.OutputRoot, fieldDirName(row))
	return p.Run(ctx, PipelineOptions{
		WorkDir:   workDir,
		CenterLat: row.Lat,
		CenterLon: row.Lon,
		HalfWidth: opts.HalfWidth,
		Start:     opts.Start,
		End:       opts.End,
		Bands:     opts.Bands,
		Quiet:     opts.Quiet,
	})
}

func fieldDirName(row *FieldRow) string {
	class := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(row.Class), " ", "_"))
	if class == "" {
		class = "unclassified"
	}
	return fmt.Sprintf("%s_%d", class, row.Polygon)
}

func orderRows(rows []*FieldRow, order BatchOrder) {
	switch order {
	case OrderBackward:
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	case OrderRandom:
		rand.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})
	}
}
