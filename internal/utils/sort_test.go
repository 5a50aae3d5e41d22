package utils

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSortDates(t *testing.T) {
	dates := []time.Time{day(3), day(1), day(2)}

	asc := SortDates(dates, true)
	if !asc[0].Equal(day(1)) || !asc[2].Equal(day(3)) {
		t.Fatalf("ascending sort wrong: %v", asc)
	}

	desc := SortDates(dates, false)
	if !desc[0].Equal(day(3)) || !desc[2].Equal(day(1)) {
		t.Fatalf("descending sort wrong: %v", desc)
	}
}

func TestGetSortedKeys(t *testing.T) {
	m := map[time.Time]string{day(2): "b", day(1): "a", day(3): "c"}
	keys := GetSortedKeys(m, true)
	if len(keys) != 3 || !keys[0].Equal(day(1)) || !keys[2].Equal(day(3)) {
		t.Fatalf("sorted keys wrong: %v", keys)
	}
}

func TestEvenlySpacedDates(t *testing.T) {
	dates := EvenlySpacedDates(day(1), day(31), 3)
	if len(dates) != 3 {
		t.Fatalf("len = %d, want 3", len(dates))
	}
	if !dates[0].Equal(day(1)) || !dates[2].Equal(day(31)) {
		t.Fatalf("endpoints wrong: %v", dates)
	}
	if !dates[1].Equal(day(16)) {
		t.Fatalf("midpoint = %v, want %v", dates[1], day(16))
	}
}
