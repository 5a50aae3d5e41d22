package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skyterra/crop-pipeline/internal/cache"
	"github.com/skyterra/crop-pipeline/internal/properties"
)

const (
	// DefaultBaseURL is the CMR search API.
	DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

	// DefaultShortName is the HLS Sentinel-2 surface reflectance
	// collection.
	DefaultShortName = "HLSS30"

	// DefaultPageSize is the default number of results per page.
	DefaultPageSize = 100

	searchCacheMaxAge = 24 * time.Hour
)

// Client searches CMR for granules.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	searchCache *cache.FileCache[[]Granule]
}

// NewClient creates a CMR client. An empty baseURL selects the
// CMR_BASE_URL environment variable, then the public endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = properties.CMRBaseURL()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:      slog.Default(),
		searchCache: cache.NewFileCache[[]Granule]("cmr_searches", searchCacheMaxAge),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Search performs a granule search against CMR. Results are cached on
// disk keyed by the full query so repeated pipeline runs over the same
// field and window skip the network.
func (c *Client) Search(ctx context.Context, params *SearchParams) ([]Granule, error) {
	if params.ShortName == "" {
		params.ShortName = DefaultShortName
	}
	queryParams := params.toURLValues()

	cacheKey := c.searchCache.Key(c.baseURL, queryParams.Encode())
	if granules, ok := c.searchCache.Get(cacheKey); ok {
		c.logger.DebugContext(ctx, "CMR search served from cache",
			slog.String("params", queryParams.Encode()),
			slog.Int("returned", len(granules)),
		)
		return granules, nil
	}

	searchURL := c.baseURL + "/granules.umm_json"
	c.logger.DebugContext(ctx, "executing CMR search",
		slog.String("url", searchURL),
		slog.String("params", queryParams.Encode()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+queryParams.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.nasa.cmr.umm_results+json")
	req.Header.Set("User-Agent", "crop-pipeline/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "CMR API request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("CMR API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "CMR API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return nil, fmt.Errorf("CMR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var cmrResp UMMSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&cmrResp); err != nil {
		return nil, fmt.Errorf("failed to decode CMR response: %w", err)
	}

	granules := make([]Granule, 0, len(cmrResp.Items))
	for _, item := range cmrResp.Items {
		granules = append(granules, item.UMM)
	}

	c.logger.DebugContext(ctx, "CMR search completed",
		slog.Int("hits", cmrResp.Hits),
		slog.Int("returned", len(granules)),
	)

	if err := c.searchCache.Set(cacheKey, granules); err != nil {
		c.logger.WarnContext(ctx, "failed to cache CMR search",
			slog.String("error", err.Error()),
		)
	}

	return granules, nil
}

// BestGranule picks the granule with the lowest cloud cover; ties go to
// the acquisition closest to target.
func BestGranule(granules []Granule, target time.Time) (Granule, error) {
	if len(granules) == 0 {
		return Granule{}, fmt.Errorf("no granules to choose from")
	}

	best := 0
	for i := 1; i < len(granules); i++ {
		ci, cb := granules[i].CloudCoverValue(), granules[best].CloudCoverValue()
		if ci < cb {
			best = i
			continue
		}
		if ci > cb {
			continue
		}
		ti, errI := granules[i].StartTime()
		tb, errB := granules[best].StartTime()
		if errI != nil || errB != nil {
			continue
		}
		if absDuration(ti.Sub(target)) < absDuration(tb.Sub(target)) {
			best = i
		}
	}
	return granules[best], nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
