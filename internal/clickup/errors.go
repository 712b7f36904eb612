package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

// ErrNotConfigured is returned when the API token or team id is missing.
// It is fatal and never retried.
var ErrNotConfigured = errors.New("clickup is not configured")

// ConfigError names the missing setting.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("clickup is not configured: %s is not set", e.Missing)
}

func (e *ConfigError) Unwrap() error { return ErrNotConfigured }

// APIError is a non-2xx answer from ClickUp.
type APIError struct {
	Status   int
	Endpoint string
	// Message is ClickUp's "err" field when present.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("clickup %s returned status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("clickup %s returned status %d", e.Endpoint, e.Status)
}

// Unauthorized reports a rejected API token.
func (e *APIError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

func newAPIError(status int, endpoint string, body []byte) *APIError {
	var payload struct {
		Err   string `json:"err"`
		ECode string `json:"ECODE"`
	}
	apiErr := &APIError{Status: status, Endpoint: endpoint}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Err
	}
	return apiErr
}

// aborted wraps a context error so that both domain.ErrAborted and the
// original context error match with errors.Is.
func aborted(ctxErr error) error {
	return fmt.Errorf("%w: %w", domain.ErrAborted, ctxErr)
}

// IsAborted reports whether err comes from a cancelled caller.
func IsAborted(err error) bool {
	return errors.Is(err, domain.ErrAborted) || errors.Is(err, context.Canceled)
}
