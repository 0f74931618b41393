package util

import (
	"strings"
	"time"
)

// TimestampLayout is the serialization format for every persisted timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// dayFirstLayouts is the fallback chain for columns without a declared
// format. Day-first variants come first to match the source locale.
var dayFirstLayouts = []string{
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"02 Jan 2006, 03:04 PM",
	"02 Jan 2006",
	"02-Jan-2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseDate parses input with one declared layout. Failures yield nil.
func ParseDate(input, layout string) *time.Time {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil
	}
	parsed, err := time.Parse(layout, s)
	if err != nil {
		return nil
	}
	return &parsed
}

// ParseDayFirst parses input against the day-first fallback chain.
func ParseDayFirst(input string) *time.Time {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil
	}
	for _, layout := range dayFirstLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return &parsed
		}
	}
	return nil
}

// FormatTimestamp renders a nullable timestamp for storage; nil stays nil
// so the driver writes NULL rather than a sentinel string.
func FormatTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(TimestampLayout)
}
