package utils

import (
	"sort"
	"time"
)

func SortDates(dates []time.Time, asc bool) []time.Time {
	sort.Slice(dates, func(i, j int) bool {
		if asc {
			return dates[i].Before(dates[j])
		}
		return dates[i].After(dates[j])
	})
	return dates
}

func GetSortedKeys[T any](m map[time.Time]T, asc bool) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return SortDates(keys, asc)
}

// EvenlySpacedDates splits [start, end] into n points, first and last
// pinned to the range ends.
func EvenlySpacedDates(start, end time.Time, n int) []time.Time {
	if n <= 1 {
		return []time.Time{start}
	}
	step := end.Sub(start) / time.Duration(n-1)
	dates := make([]time.Time, n)
	for i := 0; i < n-1; i++ {
		dates[i] = start.Add(step * time.Duration(i))
	}
	dates[n-1] = end
	return dates
}
