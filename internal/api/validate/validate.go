// Package validate checks path and query parameters before they reach the
// journal service. Body fields are validated by the service itself.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserID is 1-64 ASCII letters, digits, underscore or hyphen.
var userIDRx = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIDRx.String())
	}
	return nil
}

// EntryID must be a UUID.
func EntryID(v string) error {
	if v == "" {
		return fmt.Errorf("entryId is required")
	}
	if _, err := uuid.Parse(v); err != nil {
		return fmt.Errorf("entryId must be a UUID")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// MoodScore requires a value in [1,100].
func MoodScore(v *int) error {
	if v == nil {
		return fmt.Errorf("moodScore is required")
	}
	if *v < 1 || *v > 100 {
		return fmt.Errorf("moodScore must be between 1 and 100")
	}
	return nil
}

// Limit parses an optional positive integer query value; empty means 0.
func Limit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return n, nil
}

// Threshold parses an optional similarity cutoff in (0,1]; empty means 0.
func Threshold(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}
	return nil
}

// Timestamp parses an optional RFC3339 query value.
func Timestamp(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC3339 timestamp", field)
	}
	return &t, nil
}

// Dimensions parses optional frame width/height values; empty means 0.
func Dimensions(w, h string) (int, int, error) {
	parse := func(field, s string) (int, error) {
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 10000 {
			return 0, fmt.Errorf("%s must be an integer between 0 and 10000", field)
		}
		return n, nil
	}
	width, err := parse("width", w)
	if err != nil {
		return 0, 0, err
	}
	height, err := parse("height", h)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}
