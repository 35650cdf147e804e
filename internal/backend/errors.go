package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is returned when the router answers with a non-2xx status.
type APIError struct {
	Detail     string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("router returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("router returned status %d: %s", e.StatusCode, e.Detail)
}

// RejectedError is returned when the router answers 2xx but reports
// success:false for a key operation.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "rejected by router"
	}
	return e.Reason
}

// newAPIError builds an APIError from a response body, preferring the
// FastAPI-style {"detail": ...} field when present.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			detail = s
		} else {
			detail = string(payload.Detail)
		}
	}
	return &APIError{StatusCode: status, Detail: detail}
}
