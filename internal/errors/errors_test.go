package errors_test

import (
	"fmt"
	"testing"

	"github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapKind(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := errors.WrapKind(errors.ErrTransport, cause, "fetch %s", "discovery")

	require.True(t, errors.Is(err, errors.ErrTransport))
	require.True(t, errors.Is(err, cause))
	require.Equal(t, "fetch discovery: network failure: dial tcp: connection refused", err.Error())
	require.NoError(t, errors.WrapKind(errors.ErrTransport, nil, "noop"))
}

func TestProviderError(t *testing.T) {
	var err error = &errors.ProviderError{StatusCode: 400, Code: "invalid_grant", Description: "code expired"}
	wrapped := errors.Wrapf(err, "token exchange")

	require.True(t, errors.Is(wrapped, errors.ErrProvider))
	require.False(t, errors.Is(wrapped, errors.ErrTransport))

	var providerErr *errors.ProviderError
	require.True(t, errors.As(wrapped, &providerErr))
	require.Equal(t, "invalid_grant", providerErr.Code)
	require.Equal(t, "code expired", providerErr.Description)
	require.Contains(t, wrapped.Error(), "invalid_grant: code expired")
}

func TestInvalidRedirectError(t *testing.T) {
	err := errors.Wrapf(&errors.InvalidRedirectError{URL: "https://example.com/cb?code=1"}, "authorize")

	require.True(t, errors.Is(err, errors.ErrInvalidRedirect))
	require.Contains(t, err.Error(), "https://example.com/cb?code=1")
}
