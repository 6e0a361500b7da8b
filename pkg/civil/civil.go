// Package civil parses and formats calendar dates that carry no time of day.
package civil

import (
	"strings"
	"time"

	"github.com/medpass/medpass/internal/platform/apperr"
)

const Layout = "2006-01-02"

// ParseDate parses YYYY-MM-DD (or a full RFC 3339 timestamp, truncated to its
// date). An empty or nil value yields nil.
func ParseDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(Layout, v); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	return nil, apperr.Validation(field, "must be a date in YYYY-MM-DD format")
}

// Age returns completed years between birth and now, or -1 when birth is nil
// or in the future.
func Age(birth *time.Time, now time.Time) int {
	if birth == nil || birth.After(now) {
		return -1
	}
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// Format renders t as YYYY-MM-DD, or "" for nil.
func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(Layout)
}
