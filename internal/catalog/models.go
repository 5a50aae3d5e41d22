// Package catalog searches NASA's Common Metadata Repository (CMR) for
// HLS granules and downloads their band files.
package catalog

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// UMMSearchResponse is a CMR UMM-G granule search response.
type UMMSearchResponse struct {
	Hits  int             `json:"hits"`
	Took  int             `json:"took"`
	Items []UMMResultItem `json:"items"`
}

type UMMResultItem struct {
	UMM Granule `json:"umm"`
}

// Granule is the subset of a UMM-G record the pipeline needs.
type Granule struct {
	GranuleUR      string          `json:"GranuleUR"`
	TemporalExtent *TemporalExtent `json:"TemporalExtent,omitempty"`
	RelatedUrls    []RelatedURL    `json:"RelatedUrls,omitempty"`
	CloudCover     *float64        `json:"CloudCover,omitempty"`
}

type TemporalExtent struct {
	RangeDateTime  *RangeDateTime `json:"RangeDateTime,omitempty"`
	SingleDateTime string         `json:"SingleDateTime,omitempty"`
}

type RangeDateTime struct {
	BeginningDateTime string `json:"BeginningDateTime"`
	EndingDateTime    string `json:"EndingDateTime"`
}

// RelatedURL is a URL attached to a granule, typically one per band file.
type RelatedURL struct {
	URL     string `json:"URL"`
	Type    string `json:"Type"`
	Subtype string `json:"Subtype,omitempty"`
}

// StartTime returns the acquisition start of the granule, or the zero
// time when the record carries no temporal extent.
func (g *Granule) StartTime() (time.Time, error) {
	if g.TemporalExtent == nil {
		return time.Time{}, nil
	}
	if g.TemporalExtent.RangeDateTime != nil && g.TemporalExtent.RangeDateTime.BeginningDateTime != "" {
		return parseTime(g.TemporalExtent.RangeDateTime.BeginningDateTime)
	}
	if g.TemporalExtent.SingleDateTime != "" {
		return parseTime(g.TemporalExtent.SingleDateTime)
	}
	return time.Time{}, nil
}

// BandURL returns the download URL of one band file, matched by the
// ".<band>.tif" suffix convention of HLS product files.
func (g *Granule) BandURL(band string) string {
	suffix := "." + band + ".tif"
	for _, ru := range g.RelatedUrls {
		if ru.Type != "GET DATA" {
			continue
		}
		if strings.HasSuffix(ru.URL, suffix) {
			return ru.URL
		}
	}
	return ""
}

// CloudCoverValue returns the granule cloud cover percentage, with 100
// standing in for records that do not report it.
func (g *Granule) CloudCoverValue() float64 {
	if g.CloudCover == nil {
		return 100
	}
	return *g.CloudCover
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

// SearchParams are the CMR granule search filters used by the pipeline.
type SearchParams struct {
	ShortName   string
	BoundingBox string // west,south,east,north
	Start       time.Time
	End         time.Time
	PageSize    int
}

func (p *SearchParams) toURLValues() url.Values {
	values := url.Values{}
	values.Set("short_name", p.ShortName)
	if p.BoundingBox != "" {
		values.Set("bounding_box", p.BoundingBox)
	}
	if !p.Start.IsZero() || !p.End.IsZero() {
		values.Set("temporal", fmt.Sprintf("%s,%s",
			p.Start.UTC().Format(time.RFC3339), p.End.UTC().Format(time.RFC3339)))
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	values.Set("page_size", fmt.Sprintf("%d", pageSize))
	return values
}
