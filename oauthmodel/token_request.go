package oauthmodel

import (
	"crypto/subtle"
	"errors"
	"net/url"

	"golang.org/x/oauth2"
)

var (
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrMissingCode          = errors.New("missing authorization code")
	ErrMissingCodeVerifier  = errors.New("missing code verifier")
	ErrCodeVerifierMismatch = errors.New("code verifier does not match code challenge")
)

// TokenRequest holds the form fields of an authorization_code token request.
// A public client sends no secret; possession of the PKCE verifier proves it started the flow.
type TokenRequest struct {
	// ClientID identifies the OAuth2 client making the request.
	// Example: "com_jagex_auth_desktop_launcher"
	ClientID string

	// RedirectURI must equal the redirect_uri of the authorization request.
	RedirectURI string

	// GrantType is always "authorization_code" here.
	GrantType GrantType

	// Code is the authorization code received from the redirect.
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string

	// CodeVerifier is the PKCE secret matching the code_challenge.
	// Security: Never log or expose this value
	CodeVerifier string
}

// ParseTokenRequest reads a token request from its form values.
func ParseTokenRequest(form url.Values) TokenRequest {
	return TokenRequest{
		ClientID:     form.Get(ParamClientID),
		RedirectURI:  form.Get(ParamRedirectURI),
		GrantType:    GrantType(form.Get(ParamGrantType)),
		Code:         form.Get(ParamCode),
		CodeVerifier: form.Get(ParamCodeVerifier),
	}
}

// Validate checks the request has everything an authorization_code exchange needs.
func (r TokenRequest) Validate() error {
	if r.GrantType != AuthorizationCodeGrant {
		return ErrUnsupportedGrantType
	}
	if r.Code == "" {
		return ErrMissingCode
	}
	if r.RedirectURI == "" {
		return ErrInvalidRedirectUri
	}
	if r.CodeVerifier == "" {
		return ErrMissingCodeVerifier
	}
	return nil
}

// VerifyChallenge checks the request's verifier against an S256 code challenge.
func (r TokenRequest) VerifyChallenge(challenge string) error {
	if r.CodeVerifier == "" {
		return ErrMissingCodeVerifier
	}
	derived := oauth2.S256ChallengeFromVerifier(r.CodeVerifier)
	if subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) != 1 {
		return ErrCodeVerifierMismatch
	}
	return nil
}
