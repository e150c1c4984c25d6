package repository

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/xelth-com/eckshelf/internal/apperrors"
)

// Fields is a decoded JSON object from a create or update request. Absent
// keys fall back to a default (create) or the stored value (update).
type Fields map[string]any

// Has reports whether key was supplied
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Float coerces key to a number. JSON numbers and numeric strings are
// accepted.
func (f Fields) Float(key string, fallback float64) (float64, error) {
	v, ok := f[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		if x, err := n.Float64(); err == nil {
			return x, nil
		}
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		if x, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return x, nil
		}
		return 0, apperrors.BadRequest("could not convert %s to a number: %q", key, n)
	}
	return 0, apperrors.BadRequest("could not convert %s to a number", key)
}

// String coerces key to text. null becomes the empty string and numbers are
// formatted without exponent.
func (f Fields) String(key string, fallback string) (string, error) {
	v, ok := f[key]
	if !ok {
		return fallback, nil
	}
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case json.Number:
		return s.String(), nil
	}
	return "", apperrors.BadRequest("%s must be a string", key)
}
