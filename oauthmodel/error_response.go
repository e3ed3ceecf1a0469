package oauthmodel

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 64 << 10

// ErrorResponse is the standard OAuth 2.0 error body (RFC 6749 section 5.2).
type ErrorResponse struct {
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
}

// ProviderErrorFromResponse reads a non-2xx response into a *errors.ProviderError.
// Bodies that are not an OAuth error document keep the status and a trimmed body as
// the description so nothing the provider said is lost. A body that could not be read in
// full still yields the provider error, with the read failure appended to the description.
func ProviderErrorFromResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := ProviderErrorFromBody(resp.StatusCode, body)
	if readErr == nil {
		return err
	}

	log.Warn().Err(readErr).Int("status", resp.StatusCode).Msg("Provider error body was cut short")
	var providerErr *apperrors.ProviderError
	if apperrors.As(err, &providerErr) {
		providerErr.Description = strings.TrimSpace(providerErr.Description + " (reading body: " + readErr.Error() + ")")
	}
	return err
}

// ProviderErrorFromBody is ProviderErrorFromResponse for an already read body.
func ProviderErrorFromBody(statusCode int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorCode != "" {
		return &apperrors.ProviderError{
			StatusCode:  statusCode,
			Code:        errResp.ErrorCode,
			Description: errResp.ErrorDescription,
			URI:         errResp.ErrorURI,
		}
	}
	return &apperrors.ProviderError{
		StatusCode:  statusCode,
		Code:        strings.ReplaceAll(strings.ToLower(http.StatusText(statusCode)), " ", "_"),
		Description: strings.TrimSpace(string(body)),
	}
}
