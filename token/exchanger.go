// Package token exchanges the launcher authorization code for the user's tokens.
package token

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/launcher-auth/flow"
	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/internal/transport"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
	"golang.org/x/oauth2"
)

// Exchanger redeems authorization codes at the provider's token endpoint.
type Exchanger struct {
	httpClient *http.Client
}

// NewExchanger returns an Exchanger calling the token endpoint through a copy of httpClient
// that does not follow redirects.
func NewExchanger(httpClient *http.Client) *Exchanger {
	return &Exchanger{httpClient: transport.WithoutRedirects(httpClient)}
}

// Exchange checks state against the flow's CSRF token and, only if they match, redeems code
// with the flow's PKCE verifier. The returned token always carries an access token and an id token.
func (e *Exchanger) Exchange(ctx context.Context, f *flow.AuthFlow, code, state string) (*oauthmodel.OAuthToken, error) {
	logger := f.Logger()
	if subtle.ConstantTimeCompare([]byte(state), []byte(f.CSRFToken)) != 1 {
		logger.Warn().Msg("Authorization redirect state does not match the CSRF token")
		return nil, apperrors.Wrapf(apperrors.ErrCSRFMismatch, "[token Exchange]")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	tok, err := f.OAuth2Config.Exchange(ctx, code, oauth2.VerifierOption(f.Verifier))
	if err != nil {
		return nil, classifyExchangeError(err)
	}

	result := &oauthmodel.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
		IDToken:      extraString(tok, oauthmodel.ParamIDToken),
		Scope:        extraString(tok, oauthmodel.ParamScope),
		TokenType:    tok.TokenType,
	}
	if result.IDToken == "" {
		return nil, apperrors.WrapKind(apperrors.ErrMalformedResponse, apperrors.New("no id_token in token response"), "[token Exchange]")
	}

	logger.Info().Int64("expires_in", result.ExpiresIn).Str("scope", result.Scope).Msg("Authorization code exchanged")
	return result, nil
}

func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if apperrors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if retrieveErr.ErrorCode == "" {
			return apperrors.Wrapf(oauthmodel.ProviderErrorFromBody(status, retrieveErr.Body), "[token Exchange]")
		}
		return apperrors.Wrapf(&apperrors.ProviderError{
			StatusCode:  status,
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
			URI:         retrieveErr.ErrorURI,
		}, "[token Exchange]")
	}

	var urlErr *url.Error
	if apperrors.As(err, &urlErr) {
		return apperrors.WrapKind(apperrors.ErrTransport, err, "[token Exchange]")
	}
	return apperrors.WrapKind(apperrors.ErrMalformedResponse, err, "[token Exchange]")
}

// expiresIn prefers the raw expires_in value; x/oauth2 only keeps the derived expiry time.
func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
}

func extraString(tok *oauth2.Token, key string) string {
	s, _ := tok.Extra(key).(string)
	return s
}
