package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInstanceNotReady means the resolved gateway instance is not in the
	// open state, so delivery is impossible until it reconnects.
	ErrInstanceNotReady = errors.New("gateway instance is not ready to send messages")

	// ErrReauthorizationRequired means the refresh-token grant failed; the
	// tenant has to reauthorize through the marketplace install flow.
	ErrReauthorizationRequired = errors.New("crm authorization expired; tenant must reauthorize")

	ErrTenantNotFound = errors.New("tenant not found")
)

// APIError is a non-2xx answer from the gateway or the CRM.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) IsNotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsRateLimited() bool  { return e.StatusCode == http.StatusTooManyRequests }
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsServerError() bool  { return e.StatusCode >= 500 }

func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
