package getsafe

import (
	"encoding/json"
	"math"
)

func String(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Metadata(payload map[string]any, key string) map[string]any {
	if v, ok := payload[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// Int accepts any integral number that fits in an int. Decoded JSON carries
// numbers as float64 or json.Number, so 3.0 is an int and 3.5 is not.
func Int(payload map[string]any, key string) (int, bool) {
	switch v := payload[key].(type) {
	case int:
		return v, true
	case int64:
		if v >= math.MinInt && v <= math.MaxInt {
			return int(v), true
		}
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive
		if v == math.Trunc(v) && v >= math.MinInt && v < -float64(math.MinInt) {
			return int(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return int(n), true
		}
	}
	return 0, false
}

func Float(payload map[string]any, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

func Bool(payload map[string]any, key string) (bool, bool) {
	b, ok := payload[key].(bool)
	return b, ok
}

func Slice(payload map[string]any, key string) ([]any, bool) {
	s, ok := payload[key].([]any)
	return s, ok
}
