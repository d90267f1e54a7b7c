// Package convert normalizes the loosely typed values found in the
// community-hosted configuration document.
package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var truthy = map[string]bool{"1": true, "true": true, "yes": true}

// ToBool interprets config values where moderators write "yes", "true" or
// "1" as freely as actual booleans.
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int:
		return v == 1
	case string:
		return truthy[strings.ToLower(v)]
	default:
		return false
	}
}

// ToInt interprets config values that may be written as numbers, numeric
// strings or booleans. Anything unrecognized is 0.
func ToInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		if truthy[strings.ToLower(v)] {
			return 1
		}
		return 0
	default:
		return 0
	}
}

var durationSegment = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(weeks?|wks?|w|days?|d|hours?|hrs?|h|minutes?|mins?|m|seconds?|secs?|s)`)

var unitSeconds = map[string]float64{
	"w": 7 * 86400,
	"d": 86400,
	"h": 3600,
	"m": 60,
	"s": 1,
}

// ToDuration interprets config durations. Integers are seconds; strings
// use informal units ("-24hr", "1day1hr1min1sec"). A leading "-" negates
// the whole duration.
func ToDuration(val any) (time.Duration, error) {
	switch v := val.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case bool:
		if v {
			return time.Second, nil
		}
		return 0, nil
	case string:
		return parseDurationString(v)
	default:
		return 0, fmt.Errorf("cannot interpret %T as a duration", val)
	}
}

func parseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return applySign(neg, n), nil
	}

	matches := durationSegment.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("unrecognized duration %q", s)
	}

	var total float64
	for _, m := range matches {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("unrecognized duration %q", s)
		}
		total += n * unitSeconds[m[2][:1]]
	}
	return applySign(neg, total), nil
}

func applySign(neg bool, seconds float64) time.Duration {
	d := time.Duration(seconds * float64(time.Second))
	if neg {
		return -d
	}
	return d
}

// ParseFeedTime parses the statistics feed's ISO 8601 timestamps, which
// carry fractional seconds and a numeric zone offset.
func ParseFeedTime(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.999999999Z0700", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing feed time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ParseZonedTime parses timestamps with a colon-separated zone offset, the
// shape the weather feed uses for forecast windows.
func ParseZonedTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing zoned time %q: %w", s, err)
	}
	return t.UTC(), nil
}
