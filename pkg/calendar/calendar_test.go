package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate(" 2024-01-10 ")
	if err != nil || got != "2024-01-10" {
		t.Errorf("NormalizeDate = %q, %v", got, err)
	}

	for _, bad := range []string{"", "2024-13-01", "10/01/2024", "2024-02-30"} {
		if _, err := NormalizeDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("NormalizeDate(%q): expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := map[string]string{
		"10:00":    "10:00",
		"09:30:00": "09:30",
		"23:59:59": "23:59",
	}
	for in, want := range tests {
		got, err := NormalizeClock(in)
		if err != nil || got != want {
			t.Errorf("NormalizeClock(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, bad := range []string{"", "25:00", "10am", "10:61"} {
		if _, err := NormalizeClock(bad); !errors.Is(err, ErrInvalidClock) {
			t.Errorf("NormalizeClock(%q): expected ErrInvalidClock, got %v", bad, err)
		}
	}
}

func TestValidateClockRange(t *testing.T) {
	if err := ValidateClockRange("09:00", "17:00"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateClockRange("17:00", "09:00"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected ErrInvalidTimeRange, got %v", err)
	}
	if err := ValidateClockRange("09:00", "09:00"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected equal bounds to be rejected, got %v", err)
	}
}

func TestValidateDateRange(t *testing.T) {
	if err := ValidateDateRange("2024-01-01", "2024-01-31"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDateRange("", "2024-01-31"); err != nil {
		t.Errorf("open-ended range should pass: %v", err)
	}
	if err := ValidateDateRange("2024-02-01", "2024-01-31"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2024, 12, 28, 15, 30, 0, 0, time.UTC)
	from, to := Window(now, LookAheadDays)
	if from != "2024-12-28" || to != "2025-01-04" {
		t.Errorf("Window = %s..%s", from, to)
	}
	if Today(now) != "2024-12-28" {
		t.Errorf("Today = %s", Today(now))
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2024-02-28", 2)
	if err != nil || got != "2024-03-01" {
		t.Errorf("AddDays = %q, %v", got, err)
	}
	if _, err := AddDays("nope", 1); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestHumanFormats(t *testing.T) {
	if got := HumanDate("2024-01-10"); got != "January 10, 2024" {
		t.Errorf("HumanDate = %q", got)
	}
	if got := HumanClock("14:05"); got != "02:05 PM" {
		t.Errorf("HumanClock = %q", got)
	}
	if got := HumanClock("bad"); got != "bad" {
		t.Errorf("HumanClock should echo unparseable input, got %q", got)
	}
}
