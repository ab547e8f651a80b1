// internal/app/system/graph/times.go
package graph

import (
	"strings"
	"time"
)

// graphTimeLayouts cover the timestamp spellings Graph has been observed to
// return across v1.0 and beta.
var graphTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// ParseGraphTime turns a Graph timestamp string into a UTC time. Returns nil
// for blank or unparseable input.
func ParseGraphTime(value string) *time.Time {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}
	for _, layout := range graphTimeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

// FormatISO renders a time as RFC 3339 UTC, or "" for nil.
func FormatISO(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// DaysSince returns whole days between moment and now, floored at zero.
// Returns nil when moment is nil.
func DaysSince(moment *time.Time, now time.Time) *int {
	if moment == nil {
		return nil
	}
	days := int(now.UTC().Sub(moment.UTC()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}
