package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/skyterra/crop-pipeline/internal/properties"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	downloadRetries  = 5
	downloadCooldown = 5 * time.Second
	parallelFetches  = 3
)

// Downloader fetches granule band files through the Earthdata CDN using
// a bearer token.
type Downloader struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDownloader builds a downloader authenticated with token. An empty
// token selects the EARTHDATA_TOKEN environment variable.
func NewDownloader(token string) (*Downloader, error) {
	if token == "" {
		token = properties.EarthdataToken()
	}
	if token == "" {
		return nil, fmt.Errorf("missing Earthdata token: set EARTHDATA_TOKEN")
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Downloader{
		httpClient: oauth2.NewClient(context.Background(), src),
		logger:     slog.Default(),
	}, nil
}

// WithLogger sets a custom logger for the downloader.
func (d *Downloader) WithLogger(logger *slog.Logger) *Downloader {
	d.logger = logger
	return d
}

// FetchBands downloads the given bands of one granule into destDir, named
// <band>.tif. Bands are fetched in parallel and files that already exist
// are skipped, so an interrupted run resumes where it stopped.
func (d *Downloader) FetchBands(ctx context.Context, granule Granule, bands []string, destDir string, quiet bool) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.Default(int64(len(bands)), "Downloading "+granule.GranuleUR)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelFetches)
	for _, band := range bands {
		band := band
		g.Go(func() error {
			if err := d.fetchBand(ctx, granule, band, destDir); err != nil {
				return err
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}
	return nil
}

func (d *Downloader) fetchBand(ctx context.Context, granule Granule, band, destDir string) error {
	dest := filepath.Join(destDir, band+".tif")
	if _, err := os.Stat(dest); err == nil {
		d.logger.DebugContext(ctx, "band already downloaded",
			slog.String("granule", granule.GranuleUR),
			slog.String("band", band),
		)
		return nil
	}

	url := granule.BandURL(band)
	if url == "" {
		return fmt.Errorf("granule %s has no download URL for band %s", granule.GranuleUR, band)
	}

	var lastErr error
	for attempt := 1; attempt <= downloadRetries; attempt++ {
		lastErr = d.downloadFile(ctx, url, dest)
		if lastErr == nil {
			return nil
		}
		d.logger.WarnContext(ctx, "band download failed",
			slog.String("band", band),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(downloadCooldown):
		}
	}
	return fmt.Errorf("failed to download band %s after %d attempts: %w", band, downloadRetries, lastErr)
}

// downloadFile streams url to dest through a temp file so a torn
// download never masquerades as a complete band.
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("download returned status %d: %s", resp.StatusCode, string(body))
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
