package oauthmodel_test

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testCodeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	testCodeVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

func testConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    "launcher",
		RedirectURL: "https://example.com/launcher-redirect",
		Scopes:      []string{"openid", "offline"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://idp.example.com/oauth2/auth",
			TokenURL: "https://idp.example.com/oauth2/token",
		},
	}
}

func TestAuthorizationRequest_AuthCodeURL(t *testing.T) {
	t.Run("pkce code request", func(t *testing.T) {
		req := oauthmodel.AuthorizationRequest{
			ResponseType:        oauthmodel.CodeResponseType,
			State:               "state-1",
			Nonce:               "nonce-1",
			CodeChallenge:       testCodeChallenge,
			CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
		}
		require.NoError(t, req.Validate())

		parsed, err := oauthmodel.ParseAuthorizationRequest(req.AuthCodeURL(testConfig()))
		require.NoError(t, err)
		require.Equal(t, req, parsed.AuthorizationRequest)
		require.Equal(t, "launcher", parsed.ClientID)
		require.Equal(t, "https://example.com/launcher-redirect", parsed.RedirectURI)
		require.Equal(t, []string{"openid", "offline"}, parsed.Scopes)
	})

	t.Run("hybrid request with hint", func(t *testing.T) {
		req := oauthmodel.AuthorizationRequest{
			ResponseType: oauthmodel.CodeIDTokenResponseType,
			State:        "state-2",
			Nonce:        "nonce-2",
			IDTokenHint:  "a.b.c",
		}
		require.NoError(t, req.Validate())

		u, err := url.Parse(req.AuthCodeURL(testConfig()))
		require.NoError(t, err)
		require.Equal(t, "code id_token", u.Query().Get("response_type"))
		require.Equal(t, "a.b.c", u.Query().Get("id_token_hint"))
		require.Empty(t, u.Query().Get("code_challenge"))
	})
}

func TestAuthorizationRequest_Validate(t *testing.T) {
	valid := oauthmodel.AuthorizationRequest{
		ResponseType:        oauthmodel.CodeResponseType,
		State:               "s",
		Nonce:               "n",
		CodeChallenge:       testCodeChallenge,
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
	}

	tests := []struct {
		name   string
		mutate func(r *oauthmodel.AuthorizationRequest)
		err    error
	}{
		{"unsupported response type", func(r *oauthmodel.AuthorizationRequest) { r.ResponseType = "token" }, oauthmodel.ErrInvalidResponseType},
		{"missing state", func(r *oauthmodel.AuthorizationRequest) { r.State = " " }, oauthmodel.ErrMissingState},
		{"hybrid without nonce", func(r *oauthmodel.AuthorizationRequest) {
			r.ResponseType = oauthmodel.CodeIDTokenResponseType
			r.Nonce = ""
		}, oauthmodel.ErrMissingNonce},
		{"short challenge", func(r *oauthmodel.AuthorizationRequest) { r.CodeChallenge = "short" }, oauthmodel.ErrInvalidCodeChallenge},
		{"plain method", func(r *oauthmodel.AuthorizationRequest) { r.CodeChallengeMethod = "plain" }, oauthmodel.ErrInvalidCodeChallengeMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			require.ErrorIs(t, req.Validate(), tt.err)
		})
	}
}

func TestTokenRequest(t *testing.T) {
	form := url.Values{
		"client_id":     {"launcher"},
		"redirect_uri":  {"https://example.com/launcher-redirect"},
		"grant_type":    {"authorization_code"},
		"code":          {"ABC"},
		"code_verifier": {testCodeVerifier},
	}
	req := oauthmodel.ParseTokenRequest(form)
	require.NoError(t, req.Validate())
	require.NoError(t, req.VerifyChallenge(testCodeChallenge))
	require.ErrorIs(t, req.VerifyChallenge("not-the-challenge"), oauthmodel.ErrCodeVerifierMismatch)

	form.Set("grant_type", "refresh_token")
	require.ErrorIs(t, oauthmodel.ParseTokenRequest(form).Validate(), oauthmodel.ErrUnsupportedGrantType)

	form.Set("grant_type", "authorization_code")
	form.Del("code_verifier")
	require.ErrorIs(t, oauthmodel.ParseTokenRequest(form).Validate(), oauthmodel.ErrMissingCodeVerifier)
}

func TestProviderErrorFromBody(t *testing.T) {
	t.Run("oauth error document", func(t *testing.T) {
		err := oauthmodel.ProviderErrorFromBody(400, []byte(`{"error":"invalid_grant","error_description":"The code has expired"}`))

		var providerErr *apperrors.ProviderError
		require.ErrorAs(t, err, &providerErr)
		require.Equal(t, 400, providerErr.StatusCode)
		require.Equal(t, "invalid_grant", providerErr.Code)
		require.Equal(t, "The code has expired", providerErr.Description)
	})

	t.Run("non json body", func(t *testing.T) {
		err := oauthmodel.ProviderErrorFromBody(502, []byte("upstream unavailable\n"))

		var providerErr *apperrors.ProviderError
		require.ErrorAs(t, err, &providerErr)
		require.Equal(t, "bad_gateway", providerErr.Code)
		require.Equal(t, "upstream unavailable", providerErr.Description)
		require.ErrorIs(t, err, apperrors.ErrProvider)
	})
}

// cutShortBody returns its content and then fails instead of reporting EOF.
type cutShortBody struct {
	r io.Reader
}

func (b *cutShortBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, errors.New("connection reset by peer")
	}
	return n, err
}

func (b *cutShortBody) Close() error { return nil }

func TestProviderErrorFromResponse(t *testing.T) {
	t.Run("complete body", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"error":"invalid_grant","error_description":"expired"}`)),
		}

		var providerErr *apperrors.ProviderError
		require.ErrorAs(t, oauthmodel.ProviderErrorFromResponse(resp), &providerErr)
		require.Equal(t, "invalid_grant", providerErr.Code)
		require.Equal(t, "expired", providerErr.Description)
	})

	t.Run("body cut short", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       &cutShortBody{r: strings.NewReader("upstream unava")},
		}

		err := oauthmodel.ProviderErrorFromResponse(resp)
		require.ErrorIs(t, err, apperrors.ErrProvider)

		var providerErr *apperrors.ProviderError
		require.ErrorAs(t, err, &providerErr)
		require.Equal(t, http.StatusBadGateway, providerErr.StatusCode)
		require.Equal(t, "bad_gateway", providerErr.Code)
		require.Equal(t, "upstream unava (reading body: connection reset by peer)", providerErr.Description)
	})
}
