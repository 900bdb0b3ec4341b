package dirapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every failure surfaced by a client matches exactly one of these
// with errors.Is.
var (
	ErrConfig         = errors.New("invalid configuration")
	ErrAuthResolution = errors.New("no usable API secret")
	ErrAuthHTTP       = errors.New("authentication rejected")
	ErrTransientHTTP  = errors.New("retry budget exhausted")
	ErrFatalHTTP      = errors.New("request failed")
	ErrCanceled       = errors.New("request canceled")
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrBaseURLRequired      = errors.New("baseUrl is required")
	ErrUnsupportedMethod    = errors.New("unsupported HTTP method")
	ErrUndecodableBody      = errors.New("response body is not a JSON array or object")
	ErrUserIDRequired       = errors.New("user ID is required")
	ErrGroupIDRequired      = errors.New("group ID is required")
	ErrUnknownEndpoint      = errors.New("unknown endpoint")
	ErrUnknownSecureStorage = errors.New("unknown secure storage")
	ErrForeignHost          = errors.New("URL is not on the service host")
	ErrUnsupportedScheme    = errors.New("URL scheme must be http or https")
)

// APIError represents an error body returned by the service.
type APIError struct {
	ErrorCode    string       `json:"errorCode"              yaml:"errorCode"`
	ErrorSummary string       `json:"errorSummary"           yaml:"errorSummary"`
	ErrorLink    string       `json:"errorLink,omitempty"    yaml:"errorLink,omitempty"`
	ErrorID      string       `json:"errorId,omitempty"      yaml:"errorId,omitempty"`
	ErrorCauses  []ErrorCause `json:"errorCauses,omitempty"  yaml:"errorCauses,omitempty"`
}

// ErrorCause is one detail line of an APIError.
type ErrorCause struct {
	ErrorSummary string `json:"errorSummary" yaml:"errorSummary"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.ErrorCauses) == 0 {
		return fmt.Sprintf("%s (code: %s)", e.ErrorSummary, e.ErrorCode)
	}

	causes := make([]string, 0, len(e.ErrorCauses))
	for _, cause := range e.ErrorCauses {
		causes = append(causes, cause.ErrorSummary)
	}

	return fmt.Sprintf("%s: %s (code: %s)", e.ErrorSummary, strings.Join(causes, "; "), e.ErrorCode)
}

// ParseAPIError parses an error response body. It returns nil when the body
// does not look like a service error.
func ParseAPIError(data []byte) *APIError {
	var apiErr APIError

	err := json.Unmarshal(data, &apiErr)
	if err != nil || (apiErr.ErrorCode == "" && apiErr.ErrorSummary == "") {
		return nil
	}

	return &apiErr
}

// RequestError is the terminal failure of one logical call.
type RequestError struct {
	// Kind is one of ErrAuthHTTP, ErrTransientHTTP, ErrFatalHTTP, ErrCanceled.
	Kind       error
	Method     string
	URL        string
	StatusCode int
	Attempts   int
	APIError   *APIError
	// Err is the last classified cause.
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%s %s: %v", e.Method, e.URL, e.Kind)

	if e.StatusCode != 0 {
		fmt.Fprintf(&builder, " (status %d %s)", e.StatusCode, http.StatusText(e.StatusCode))
	}

	fmt.Fprintf(&builder, " after %d attempt(s)", e.Attempts)

	switch {
	case e.APIError != nil:
		fmt.Fprintf(&builder, ": %s", e.APIError.Error())
	case e.Err != nil:
		fmt.Fprintf(&builder, ": %v", e.Err)
	}

	return builder.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *RequestError) Unwrap() []error {
	errs := []error{e.Kind}

	if e.APIError != nil {
		errs = append(errs, e.APIError)
	}

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// ConfigError reports every problem found while validating a Config.
type ConfigError struct {
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %v", ErrConfig, e.Err)
}

// Unwrap returns ErrConfig and the underlying problems.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfig, e.Err}
}

// AuthResolutionError reports that no secret tier produced a usable value.
type AuthResolutionError struct {
	// Tried lists the tiers consulted, in order, with the reason each was skipped.
	Tried []string
}

// Error implements the error interface.
func (e *AuthResolutionError) Error() string {
	if len(e.Tried) == 0 {
		return ErrAuthResolution.Error()
	}

	return fmt.Sprintf("%v (tried: %s)", ErrAuthResolution, strings.Join(e.Tried, "; "))
}

// Is matches ErrAuthResolution.
func (e *AuthResolutionError) Is(target error) bool {
	return target == ErrAuthResolution
}

// IsAuthFailure checks if the error is a rejected authentication.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthHTTP)
}

// IsTransient checks if the error is an exhausted throttling or server failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientHTTP)
}

// IsFatal checks if the error is a non-retryable request failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalHTTP)
}

// IsCanceled checks if the call was abandoned because its context ended.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == http.StatusNotFound
	}

	return false
}
