package power

import (
	"errors"
	"fmt"
)

// ErrNoData means the requested window contained only fill values.
var ErrNoData = errors.New("no valid data points in window")

// APIError represents an error returned by the POWER API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}
