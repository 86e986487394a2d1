package jira

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the ISO calendar-day format used on every date axis.
const DayLayout = "2006-01-02"

// timeLayouts lists the date formats seen in Jira Cloud and Data Center CSV exports,
// most specific first. Layouts without a zone are interpreted as UTC.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700", // REST API format
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DayLayout,
	"02/Jan/06 3:04 PM",
	"02/Jan/06 15:04",
	"02/Jan/06",
	"2/Jan/06 3:04 PM",
	"02/Jan/2006 3:04 PM",
	"02/Jan/2006 15:04",
	"01/02/2006 15:04",
	"01/02/2006",
	"Jan 2, 2006",
}

// ParseTime parses a Jira timestamp in any of the known export formats.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseDay parses an ISO calendar day (YYYY-MM-DD) at midnight UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}
