package models

import "time"

// timestampLayout is the Spotify added_at form: UTC, second precision, Z-suffixed.
const timestampLayout = "2006-01-02T15:04:05Z"

// ParseTimestamp parses a Spotify-style ISO-8601 timestamp.
//
// Returns the zero time for an empty or unparseable value; a missing
// timestamp never blocks processing, it just cannot advance the watermark.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}

	return ts.UTC()
}

// FormatTimestamp renders a timestamp in the same form Spotify emits,
// truncated to second precision.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Truncate(time.Second).Format(timestampLayout)
}
