package token_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/jrsteele09/launcher-auth/flow"
	"github.com/jrsteele09/launcher-auth/internal/config"
	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/internal/fakeprovider"
	"github.com/jrsteele09/launcher-auth/token"
	"github.com/stretchr/testify/require"
)

// beginAndAuthorize starts a flow against fp and returns it with the code and state the
// provider redirected back with.
func beginAndAuthorize(t *testing.T, fp *fakeprovider.Provider) (*flow.AuthFlow, string, string) {
	t.Helper()
	cfg, err := config.New(config.WithOverrides(fp.Overrides()))
	require.NoError(t, err)

	f, err := flow.NewInitiator(cfg, http.DefaultClient).Begin(context.Background())
	require.NoError(t, err)

	redirect, err := fp.Authorize(f.AuthorizationURL)
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	return f, u.Query().Get("code"), u.Query().Get("state")
}

func TestExchange(t *testing.T) {
	fp := fakeprovider.Start(t, fakeprovider.WithCodes("ABC"))
	f, code, state := beginAndAuthorize(t, fp)
	require.Equal(t, "ABC", code)

	tok, err := token.NewExchanger(http.DefaultClient).Exchange(context.Background(), f, code, state)
	require.NoError(t, err)

	require.NotEmpty(t, tok.AccessToken)
	require.NotEmpty(t, tok.RefreshToken)
	require.Equal(t, int64(3600), tok.ExpiresIn)
	require.NotEmpty(t, tok.IDToken)
	require.Equal(t, "openid offline gamesso.token.create user.profile.read user.entitlement.read user.game.read user.sku.read user.voucher.redeem", tok.Scope)
	require.Equal(t, "bearer", tok.TokenType)
}

func TestExchange_CSRFMismatch(t *testing.T) {
	fp := fakeprovider.Start(t)
	f, code, _ := beginAndAuthorize(t, fp)

	tok, err := token.NewExchanger(http.DefaultClient).Exchange(context.Background(), f, code, "forged-state")
	require.Nil(t, tok)
	require.ErrorIs(t, err, apperrors.ErrCSRFMismatch)
	require.Zero(t, fp.Hits(fakeprovider.RouteToken), "no token request may be sent on a state mismatch")
}

func TestExchange_ProviderErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		code        string
		description string
	}{
		{
			name:        "oauth error body",
			status:      http.StatusBadRequest,
			body:        `{"error":"invalid_grant","error_description":"The code has expired"}`,
			code:        "invalid_grant",
			description: "The code has expired",
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        "upstream unavailable",
			code:        "bad_gateway",
			description: "upstream unavailable",
		},
		{
			name:   "redirect is not followed",
			status: http.StatusFound,
			body:   "",
			code:   "found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := fakeprovider.Start(t)
			f, code, state := beginAndAuthorize(t, fp)
			fp.Fail(fakeprovider.RouteToken, tt.status, tt.body)

			_, err := token.NewExchanger(http.DefaultClient).Exchange(context.Background(), f, code, state)
			require.ErrorIs(t, err, apperrors.ErrProvider)

			var providerErr *apperrors.ProviderError
			require.ErrorAs(t, err, &providerErr)
			require.Equal(t, tt.status, providerErr.StatusCode)
			require.Equal(t, tt.code, providerErr.Code)
			require.Equal(t, tt.description, providerErr.Description)
		})
	}
}

func TestExchange_WrongVerifier(t *testing.T) {
	fp := fakeprovider.Start(t)
	f, code, state := beginAndAuthorize(t, fp)

	tampered := *f
	tampered.Verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	_, err := token.NewExchanger(http.DefaultClient).Exchange(context.Background(), &tampered, code, state)
	var providerErr *apperrors.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, "invalid_grant", providerErr.Code)
}

func TestExchange_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id token", `{"access_token":"at","token_type":"bearer","expires_in":60}`},
		{"missing access token", `{"id_token":"a.b.c","token_type":"bearer"}`},
		{"not json", `{"access_token":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := fakeprovider.Start(t)
			f, code, state := beginAndAuthorize(t, fp)
			fp.Fail(fakeprovider.RouteToken, http.StatusOK, tt.body)

			_, err := token.NewExchanger(http.DefaultClient).Exchange(context.Background(), f, code, state)
			require.ErrorIs(t, err, apperrors.ErrMalformedResponse)
		})
	}
}

func TestExchange_TransportFailure(t *testing.T) {
	fp := fakeprovider.Start(t)
	f, code, state := beginAndAuthorize(t, fp)
	fp.Close()

	_, err := token.NewExchanger(http.DefaultClient).Exchange(context.Background(), f, code, state)
	require.ErrorIs(t, err, apperrors.ErrTransport)
}
