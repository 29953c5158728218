package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Each lookup walks its alias list in order and returns the first value that is
// present and of the expected kind. A present but mistyped value does not stop
// the search.

func lookupString(fields map[string]any, keys []string) string {
	for _, key := range keys {
		if value, ok := fields[key].(string); ok {
			return value
		}
	}
	return ""
}

func lookupBool(fields map[string]any, keys []string) (bool, bool) {
	for _, key := range keys {
		if value, ok := fields[key].(bool); ok {
			return value, true
		}
	}
	return false, false
}

func lookupMap(fields map[string]any, keys []string) (map[string]any, bool) {
	for _, key := range keys {
		if value, ok := fields[key].(map[string]any); ok {
			return value, true
		}
	}
	return nil, false
}

func lookupCount(fields map[string]any, keys []string) int64 {
	for _, key := range keys {
		if count, ok := parseCount(fields[key]); ok {
			return count
		}
	}
	return 0
}

// parseCount accepts JSON numbers, json.Number and display strings such as
// "1,234" or "1.2K". Negative and non-finite values clamp to zero.
func parseCount(value any) (int64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseMetric(v)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, true
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(f), true
}

func parseMetric(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	multiplier := 1.0
	switch strings.ToUpper(s[len(s)-1:]) {
	case "K":
		multiplier = 1e3
		s = s[:len(s)-1]
	case "M":
		multiplier = 1e6
		s = s[:len(s)-1]
	case "B":
		multiplier = 1e9
		s = s[:len(s)-1]
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return value * multiplier, true
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatDate converts an ISO-8601 timestamp into a UTC calendar date. A
// trailing "Z" is accepted, zoneless values are read as UTC, and anything
// unparseable yields "".
func formatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC().Format(CreatedAtLayout)
	}
	for _, layout := range zonelessLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.Format(CreatedAtLayout)
		}
	}
	return ""
}
