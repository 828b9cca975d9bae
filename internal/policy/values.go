package policy

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Conditions, actions and contexts arrive from JSON documents and from Go
// callers, so numbers may be any numeric kind or a numeric string.

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt truncates toward zero. Values outside the int range are rejected.
func toInt(v interface{}) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	if f, ok := toFloat(v); ok {
		return f != 0, true
	}
	return false, false
}

// toTime accepts time.Time, RFC3339 strings and unix seconds.
func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err == nil {
			return parsed, true
		}
	}
	if secs, ok := toFloat(v); ok && secs >= math.MinInt64 && secs < math.MaxInt64 {
		return time.Unix(int64(secs), 0), true
	}
	return time.Time{}, false
}
