// Package calendar parses and formats the date and clock values exchanged
// over the API ("2006-01-02" dates, "15:04" clock times) and computes the
// look-ahead windows used by availability listings.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// LookAheadDays is how far ahead availability listings reach.
const LookAheadDays = 7

var (
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidClock     = errors.New("invalid time, expected HH:MM")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrInvalidDateRange = errors.New("from date must not be after to date")
)

// ParseDate parses a YYYY-MM-DD date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// NormalizeDate re-formats a parsed date, rejecting anything invalid.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// NormalizeClock accepts "HH:MM" or "HH:MM:SS" and returns "HH:MM".
// Seconds are dropped.
func NormalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ClockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// ValidateClockRange checks that end is strictly after start. Both must be
// normalized HH:MM values, which order lexically.
func ValidateClockRange(start, end string) error {
	if end <= start {
		return ErrInvalidTimeRange
	}
	return nil
}

// ValidateDateRange checks from <= to when both are set.
func ValidateDateRange(from, to string) error {
	if from != "" && to != "" && from > to {
		return ErrInvalidDateRange
	}
	return nil
}

// Today returns now's calendar date as YYYY-MM-DD in now's location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Window returns the inclusive date range [today, today+days].
func Window(now time.Time, days int) (from, to string) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start.Format(DateLayout), start.AddDate(0, 0, days).Format(DateLayout)
}

// AddDays shifts a YYYY-MM-DD date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// HumanDate renders "January 10, 2024" for documents and mail.
func HumanDate(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("January 02, 2006")
}

// HumanClock renders "10:00 AM" for documents and mail.
func HumanClock(clock string) string {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return clock
	}
	return t.Format("03:04 PM")
}
