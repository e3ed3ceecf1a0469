package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the login pipeline. Every failure returned by a stage
// matches exactly one of these with errors.Is.
var (
	// State / redirect errors
	ErrCSRFMismatch    = errors.New("state does not match the CSRF token")
	ErrInvalidRedirect = errors.New("redirect URL does not contain the expected parameters")
	ErrFlowCancelled   = errors.New("authorization flow was cancelled")

	// Provider errors
	ErrProvider          = errors.New("provider error")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrInvalidIDToken    = errors.New("invalid id token")

	// Transport errors
	ErrTransport = errors.New("network failure")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
)

// InvalidRedirectError is returned when a navigation matched the expected redirect URI
// but did not carry the required parameters. URL is kept for diagnostics.
type InvalidRedirectError struct {
	URL     string
	Missing []string
}

func (e *InvalidRedirectError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRedirect.Error(), e.URL)
}

func (e *InvalidRedirectError) Is(target error) bool {
	return target == ErrInvalidRedirect
}

// ProviderError is the structured OAuth error body (RFC 6749 section 5.2) returned by
// any provider endpoint that answered with a non-2xx status.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
	URI         string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s (status %d): %s", ErrProvider.Error(), e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (status %d): %s: %s", ErrProvider.Error(), e.StatusCode, e.Code, e.Description)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// WrapKind wraps err with context and marks it with kind, so that both
// errors.Is(result, kind) and errors.Is(result, err) hold.
func WrapKind(kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w: %w", append(args, kind, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
