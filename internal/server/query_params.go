package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

var errInvalidNumber = errors.New("invalid_number")

func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

func parseOptionalTimePtr(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	return parseOptionalTime(*value, false)
}

// parseOptionalNumber accepts a JSON number only; quoted numerals are
// rejected. JSON null and an absent value both yield nil.
func parseOptionalNumber(raw json.RawMessage) (*float64, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		return nil, errInvalidNumber
	}
	return &number, nil
}

// parseOptionalAmount accepts a whole JSON number of minor currency units.
func parseOptionalAmount(raw json.RawMessage) (*int64, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var amount int64
	if err := json.Unmarshal(raw, &amount); err != nil {
		return nil, errInvalidNumber
	}
	return &amount, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
