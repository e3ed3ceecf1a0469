package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
)

// NewJSONRequest builds a request with an optional JSON body and bearer credential.
func NewJSONRequest(ctx context.Context, method, rawURL string, body any, bearer string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrapf(err, "encode %s body", rawURL)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, apperrors.WrapKind(apperrors.ErrInvalidRequest, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}

// DoJSON sends req and decodes a 2xx JSON body into out. Network failures are ErrTransport,
// non-2xx responses are *errors.ProviderError and undecodable bodies are ErrMalformedResponse.
func DoJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.WrapKind(apperrors.ErrTransport, err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.Wrapf(oauthmodel.ProviderErrorFromResponse(resp), "%s %s", req.Method, req.URL.Path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapKind(apperrors.ErrMalformedResponse, err, "decode %s", req.URL.Path)
	}
	return nil
}
