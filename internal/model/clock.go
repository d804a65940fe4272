package model

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used for dates and times of day on the wire and in storage.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// NormalizeClock accepts HH:MM or HH:MM:SS (as returned by MySQL TIME
// columns) and returns HH:MM.
func NormalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	layout := ClockLayout
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Format(ClockLayout), nil
}

// Combine joins a date and a time of day into an instant in loc (UTC when
// loc is nil).
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	hm, err := NormalizeClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(DateLayout+" "+ClockLayout, strings.TrimSpace(date)+" "+hm, loc)
}
