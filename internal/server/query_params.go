package server

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var errInvalidWindow = errors.New("invalid_window")

// maxWindowHours keeps the hour count representable as a time.Duration.
var maxWindowHours = float64(math.MaxInt64) / float64(time.Hour)

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseOptionalWindow accepts a Go duration ("6h", "90m") or a bare number
// of hours. Empty means the configured default.
func parseOptionalWindow(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	if hours, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if math.IsNaN(hours) || hours <= 0 || hours >= maxWindowHours {
			return 0, errInvalidWindow
		}
		return time.Duration(hours * float64(time.Hour)), nil
	}
	parsed, err := time.ParseDuration(trimmed)
	if err != nil || parsed <= 0 {
		return 0, errInvalidWindow
	}
	return parsed, nil
}

func parseOptionalTime(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, trimmed)
	if err != nil {
		return nil, errors.New("invalid_timestamp")
	}
	return &parsed, nil
}
