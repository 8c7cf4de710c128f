package provider

import (
	"encoding/json"
	"errors"
)

// ProviderError wraps a provider API error with classification metadata.
type ProviderError struct {
	// Provider is the name of the provider that returned the error.
	Provider string
	// StatusCode is the HTTP status code from the provider API.
	StatusCode int
	// Body is the raw error response body, preserved for operator inspection.
	Body string
	// Permanent indicates the error will not succeed on retry.
	Permanent bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Body
}

// IsPermanent returns true if the error is a permanent failure that a stricter
// retry policy could fail fast on.
func IsPermanent(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Permanent
	}
	return false
}

// IsTransient returns true if the error is a temporary failure that may
// succeed on retry.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return !pe.Permanent
	}
	// Unknown errors are treated as transient to avoid data loss.
	return true
}

// graphErrorEnvelope matches the Graph API error response shape.
type graphErrorEnvelope struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		Subcode   int    `json:"error_subcode"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// Graph API error codes that indicate throttling; always transient.
// https://developers.facebook.com/docs/whatsapp/cloud-api/support/error-codes
const (
	graphCodeTooManyCalls      = 4
	graphCodeRateLimitHit      = 80007
	graphCodeThroughputCeiling = 130429
)

// ClassifyGraphError creates a ProviderError from a Graph API status code and
// response body, classifying it as permanent or transient.
func ClassifyGraphError(providerName string, statusCode int, body string) *ProviderError {
	pe := &ProviderError{
		Provider:   providerName,
		StatusCode: statusCode,
		Body:       body,
	}

	var env graphErrorEnvelope
	hasEnvelope := json.Unmarshal([]byte(body), &env) == nil && env.Error.Code != 0

	switch {
	case statusCode >= 200 && statusCode < 300:
		// Not an error.
		return nil

	case statusCode == 429:
		// Rate limited - always transient.
		pe.Permanent = false

	case statusCode >= 500:
		pe.Permanent = false

	case hasEnvelope && isThrottleCode(env.Error.Code):
		pe.Permanent = false

	case statusCode >= 400 && statusCode < 500:
		// Auth failures, unknown templates, malformed parameters: retrying
		// the same payload cannot succeed.
		pe.Permanent = true
	}

	return pe
}

func isThrottleCode(code int) bool {
	switch code {
	case graphCodeTooManyCalls, graphCodeRateLimitHit, graphCodeThroughputCeiling:
		return true
	}
	return false
}
