package tiktok

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawItem is one loosely-typed record from the scraping provider. Required-ness
// of its fields is data-dependent, so it stays an untyped bag with typed
// accessors instead of a rigid schema.
type RawItem map[string]any

// stringField renders the value under key as a string. Numbers are formatted,
// anything else unusable collapses to "".
func (r RawItem) stringField(key string) string {
	return stringify(r[key])
}

// sub returns a nested object, or an empty item when the key is missing or not
// an object.
func (r RawItem) sub(key string) RawItem {
	if m, ok := r[key].(map[string]any); ok {
		return RawItem(m)
	}
	return RawItem{}
}

// listField returns the value under key as a slice, or nil.
func (r RawItem) listField(key string) []any {
	if l, ok := r[key].([]any); ok {
		return l
	}
	return nil
}

// intField coerces the value under key to an int64, defaulting to 0 on
// missing or unparseable input.
func (r RawItem) intField(key string) int64 {
	n, _ := coerceInt(r[key])
	return n
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// coerceInt converts the usual JSON number encodings to an int64. The second
// return reports whether a numeric value was actually present.
func coerceInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// blankToNA trims s and substitutes the N/A sentinel for empty input.
func blankToNA(s string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return NA
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
