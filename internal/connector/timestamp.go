package connector

import (
	"encoding/json"
	"strconv"
	"time"
)

// ParseTimestamp accepts either an epoch-millisecond number or an
// RFC3339 string and returns epoch milliseconds UTC, following
// original_source/src/connectors/cline.rs's parse_timestamp (several
// connectors' source artifacts mix both representations across tools
// and tool versions).
func ParseTimestamp(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return int64(num), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	return ParseTimestampString(s)
}

// ParseTimestampString parses a timestamp that arrived as a bare string:
// either digits (epoch millis or seconds) or RFC3339.
func ParseTimestampString(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Disambiguate seconds vs. milliseconds the way Unix epochs
		// naturally separate: a seconds-since-1970 value is ~10 digits
		// through year 2286, a millisecond value ~13.
		if n < 1_000_000_000_000 {
			n *= 1000
		}
		return n, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}
