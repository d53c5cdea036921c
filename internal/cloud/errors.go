package cloud

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError represents a non-2xx response from the processing service.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Detail())
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// Detail returns the service's error message. FastAPI wraps it as
// {"detail": "..."}; anything else is returned as the trimmed body.
func (e *APIError) Detail() string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil && len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(e.Body)
}

// RejectedError is returned when the service answers 2xx with success=false.
type RejectedError struct {
	Endpoint string
	Message  string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return e.Endpoint + " rejected by service"
	}
	return fmt.Sprintf("%s rejected by service: %s", e.Endpoint, e.Message)
}
