package services

import (
	"errors"
	"fmt"
	"net/http"

	"reccord/internal/models"
)

// Sentinel errors for the credential and provider failure taxonomy.
// Callers classify with errors.Is; the sync engine treats every one of
// these as a per-source soft failure.
var (
	// ErrCredentialNotFound means no connection exists for the user
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrExpiredCredential means a non-refreshable token has lapsed and
	// the user must re-authorize interactively
	ErrExpiredCredential = errors.New("credential expired, reauthorization required")

	// ErrAuthenticationFailed means the provider rejected the token
	ErrAuthenticationFailed = errors.New("provider rejected credentials")

	// ErrResourceUnavailable means the endpoint or resource is missing,
	// e.g. gated behind a subscription tier the user lacks
	ErrResourceUnavailable = errors.New("provider resource unavailable")
)

// ProviderError wraps a failed call to a streaming service, preserving the
// upstream status code and message for diagnostics.
type ProviderError struct {
	Service    models.Service
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Service, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// statusError builds a ProviderError for a non-2xx response, wrapping the
// sentinel that matches the status class.
func statusError(service models.Service, operation string, statusCode int, body string) *ProviderError {
	var kind error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrAuthenticationFailed
	case http.StatusNotFound:
		kind = ErrResourceUnavailable
	}

	return &ProviderError{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    body,
		Err:        kind,
	}
}

// requestError builds a ProviderError for a transport-level failure.
func requestError(service models.Service, operation string, err error) *ProviderError {
	return &ProviderError{
		Service:   service,
		Operation: operation,
		Message:   "request failed",
		Err:       err,
	}
}
