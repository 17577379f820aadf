package utils

import (
	"math"
	"strconv"
	"strings"
)

// Int64ToStr converts an int64 to its string representation.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// OptionalInt64 parses s when non-empty. An empty string yields nil.
func OptionalInt64(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := StrToInt64(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// NewNullString returns nil for a blank string, so optional flags and form
// fields are stored as NULL.
func NewNullString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// RoundHours converts minutes to hours rounded to two decimals, for display.
func RoundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
