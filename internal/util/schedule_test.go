package util

import (
	"testing"
	"time"
)

func TestAddWeeks_SevenDaySpacing(t *testing.T) {
	base := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	result := AddWeeks(base, 3)
	expected := time.Date(2025, 2, 5, 10, 30, 0, 0, time.UTC)

	if !result.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected, result)
	}
}

func TestAddMonths_KeepsDayOfMonth(t *testing.T) {
	base := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	result := AddMonths(base, 2)
	expected := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	if !result.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected, result)
	}
}

func TestAddMonths_OverflowNormalizes(t *testing.T) {
	// Jan 31 + 1 month lands in early March, plain calendar arithmetic
	base := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	result := AddMonths(base, 1)
	expected := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	if !result.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected, result)
	}
}

func TestMonthBounds_HalfOpenRange(t *testing.T) {
	start, end := MonthBounds(2025, 12)

	if start.Year() != 2025 || start.Month() != time.December || start.Day() != 1 {
		t.Errorf("Expected start 2025-12-01, got %s", start)
	}
	if end.Year() != 2026 || end.Month() != time.January || end.Day() != 1 {
		t.Errorf("Expected end 2026-01-01, got %s", end)
	}
}

func TestPreviousMonth_JanuaryWrapsYear(t *testing.T) {
	year, month := PreviousMonth(2025, 1)

	if year != 2024 || month != 12 {
		t.Errorf("Expected 2024-12, got %d-%d", year, month)
	}
}
