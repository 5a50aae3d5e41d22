package mosaic

import "fmt"

// NotFoundError reports a missing input directory.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input directory not found: %s", e.Path)
}

// MissingBandError reports a band with no matching file in a time period.
type MissingBandError struct {
	Period string
	Band   string
}

func (e *MissingBandError) Error() string {
	return fmt.Sprintf("missing band %s in period %s", e.Band, e.Period)
}

// InconsistentGridError reports band files that disagree on pixel grid,
// CRS or data type where they are required to agree: within one time
// period, or for CRS and data type across periods.
type InconsistentGridError struct {
	Period string
	Detail string
}

func (e *InconsistentGridError) Error() string {
	return fmt.Sprintf("inconsistent grid in period %s: %s", e.Period, e.Detail)
}

// GridMismatchError reports a time period whose pixel grid does not line
// up with the reference period's grid.
type GridMismatchError struct {
	Period string
	Detail string
}

func (e *GridMismatchError) Error() string {
	return fmt.Sprintf("grid mismatch in period %s: %s", e.Period, e.Detail)
}

// EmptyClipError reports a bounding box that does not intersect a time
// period's raster extent.
type EmptyClipError struct {
	Period string
}

func (e *EmptyClipError) Error() string {
	return fmt.Sprintf("bounding box does not intersect raster extent of period %s", e.Period)
}
