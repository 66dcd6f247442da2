package elevation

import "fmt"

// APIError represents an error returned by an elevation provider
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// BatchError means a provider answered with the wrong number of points,
// so the stencil cannot be trusted.
type BatchError struct {
	Want int
	Got  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("provider returned %d elevations, expected %d", e.Got, e.Want)
}
