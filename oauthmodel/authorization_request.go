package oauthmodel

import (
	"errors"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

var (
	ErrInvalidCodeChallenge       = errors.New("invalid code challenge")
	ErrInvalidCodeChallengeMethod = errors.New("invalid code challenge method")
	ErrInvalidRedirectUri         = errors.New("invalid or no redirect uri")
	ErrInvalidResponseType        = errors.New("unsupported response type")
	ErrMissingState               = errors.New("missing state")
	ErrMissingNonce               = errors.New("missing nonce")
)

// AuthorizationRequest holds the parameters this client adds to an authorization URL on top of
// client_id, redirect_uri and scope (which come from the oauth2.Config).
type AuthorizationRequest struct {
	// ResponseType specifies what the authorization endpoint should return.
	// Example: "code" for the launcher login, "code id_token" for the session request
	ResponseType ResponseType

	// State is the CSRF token round-tripped through the redirect.
	// Security: the redirect is rejected unless the returned state equals this value
	State string

	// Nonce is bound into the id token by the provider.
	// Security: the id token's nonce claim must equal this value
	Nonce string

	// CodeChallenge is BASE64URL(SHA256(code_verifier)).
	// Required: for the launcher login; empty for the session request
	CodeChallenge string

	// CodeChallengeMethod is always S256 when a challenge is present.
	CodeChallengeMethod CodeMethodType

	// IDTokenHint passes a previously issued id token so the provider can skip the login UI.
	// Used for: the hidden session request, which relies on the session from the first login
	IDTokenHint string
}

// AuthCodeURL renders the request against cfg's authorization endpoint.
func (r AuthorizationRequest) AuthCodeURL(cfg *oauth2.Config) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam(ParamResponseType, string(r.ResponseType)),
	}
	if r.Nonce != "" {
		opts = append(opts, oauth2.SetAuthURLParam(ParamNonce, r.Nonce))
	}
	if r.CodeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam(ParamCodeChallenge, r.CodeChallenge),
			oauth2.SetAuthURLParam(ParamCodeChallengeMethod, string(r.CodeChallengeMethod)),
		)
	}
	if r.IDTokenHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam(ParamIDTokenHint, r.IDTokenHint))
	}
	return cfg.AuthCodeURL(r.State, opts...)
}

// Validate checks the request is one this client is allowed to send.
func (r AuthorizationRequest) Validate() error {
	if !responseTypeValid(r.ResponseType) {
		return ErrInvalidResponseType
	}
	if strings.TrimSpace(r.State) == "" {
		return ErrMissingState
	}
	// OpenID Connect requires a nonce whenever an id token comes back from the authorization endpoint
	if r.ResponseType == CodeIDTokenResponseType && strings.TrimSpace(r.Nonce) == "" {
		return ErrMissingNonce
	}
	if !codeChallengeValid(r.CodeChallenge) {
		return ErrInvalidCodeChallenge
	}
	if !codeChallengeMethodValid(r.CodeChallenge, r.CodeChallengeMethod) {
		return ErrInvalidCodeChallengeMethod
	}
	return nil
}

// ParsedAuthorizationRequest is an authorization request read back from a URL, as a
// provider would see it.
type ParsedAuthorizationRequest struct {
	AuthorizationRequest
	ClientID    string
	RedirectURI string
	Scopes      []string
}

// ParseAuthorizationRequest reads the parameters of an authorization URL.
func ParseAuthorizationRequest(rawURL string) (*ParsedAuthorizationRequest, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if q.Get(ParamRedirectURI) == "" {
		return nil, ErrInvalidRedirectUri
	}
	return &ParsedAuthorizationRequest{
		AuthorizationRequest: AuthorizationRequest{
			ResponseType:        ResponseType(q.Get(ParamResponseType)),
			State:               q.Get(ParamState),
			Nonce:               q.Get(ParamNonce),
			CodeChallenge:       q.Get(ParamCodeChallenge),
			CodeChallengeMethod: CodeMethodType(q.Get(ParamCodeChallengeMethod)),
			IDTokenHint:         q.Get(ParamIDTokenHint),
		},
		ClientID:    q.Get(ParamClientID),
		RedirectURI: q.Get(ParamRedirectURI),
		Scopes:      strings.Fields(q.Get(ParamScope)),
	}, nil
}

func responseTypeValid(responseType ResponseType) bool {
	switch responseType {
	case CodeResponseType, CodeIDTokenResponseType:
		return true
	}
	return false
}

// RFC 7636 section 4.2: 43 to 128 characters
func codeChallengeValid(codeChallenge string) bool {
	if codeChallenge == "" {
		return true
	}
	return len(codeChallenge) >= 43 && len(codeChallenge) <= 128
}

func codeChallengeMethodValid(codeChallenge string, challengeMethod CodeMethodType) bool {
	if strings.TrimSpace(codeChallenge) == "" {
		return challengeMethod == ""
	}
	return challengeMethod == CodeMethodTypeS256
}
