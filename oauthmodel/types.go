package oauthmodel

// ResponseType represents the OAuth 2.0 / OpenID Connect response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Used in: the primary launcher login (PKCE, public client)
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oauth2/auth?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"

	// CodeIDTokenResponseType indicates the OpenID Connect hybrid flow.
	// Used in: the game-session request, where the id token itself is what we need
	// Returns both an authorization code and an id token from the same redirect, in the fragment.
	// Example: http://localhost#code=...&id_token=...&state=...
	CodeIDTokenResponseType ResponseType = "code id_token"
)

// ResponseModeType denotes how the authorization response parameters are returned to the client.
type ResponseModeType string

const (
	// QueryResponseMode returns parameters in the URL query string.
	// Default for response_type=code.
	// Example: https://client.example.com/callback?code=ABC123&state=xyz
	QueryResponseMode ResponseModeType = "query"

	// FragmentResponseMode returns parameters in the URL fragment (after #).
	// Default for any response type that includes id_token.
	// Example: http://localhost#id_token=...&state=xyz
	FragmentResponseMode ResponseModeType = "fragment"
)

// DefaultResponseMode returns the response mode a provider uses when none is requested.
func (r ResponseType) DefaultResponseMode() ResponseModeType {
	if r == CodeResponseType {
		return QueryResponseMode
	}
	return FragmentResponseMode
}

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Server validates: SHA256(provided code_verifier) == stored code_challenge
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client_id, redirect_uri, code_verifier
	// Returns: access_token, id_token, refresh_token
	AuthorizationCodeGrant GrantType = "authorization_code"
)

// Request and response parameter names.
const (
	ParamClientID            = "client_id"
	ParamRedirectURI         = "redirect_uri"
	ParamResponseType        = "response_type"
	ParamScope               = "scope"
	ParamState               = "state"
	ParamNonce               = "nonce"
	ParamCode                = "code"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamCodeVerifier        = "code_verifier"
	ParamGrantType           = "grant_type"
	ParamIDToken             = "id_token"
	ParamIDTokenHint         = "id_token_hint"
)
