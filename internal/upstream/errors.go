package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredentials is returned when a credentialed call is attempted
// without a Cookie header. No request is sent.
var ErrNoCredentials = errors.New("no credentials available")

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	URL  string
	// Body holds the start of the response body for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
}

// HTTPStatus lets retry.StatusOf read the code.
func (e *StatusError) HTTPStatus() int { return e.Code }

// AuthError is an authentication-classified failure: missing credentials or
// a 401/403 from the credentialed source.
type AuthError struct {
	Source string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Source, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthStatus reports whether code means the credentials were rejected.
func IsAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsAuthFailure reports whether err is authentication-classified.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return true
	}
	if errors.Is(err, ErrNoCredentials) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && IsAuthStatus(se.Code)
}
