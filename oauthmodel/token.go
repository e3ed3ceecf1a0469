package oauthmodel

// OAuthToken is the token endpoint response (RFC 6749 section 5.1 plus the OpenID Connect id_token).
// It lives only for the duration of one login attempt and is never written to disk.
type OAuthToken struct {
	// AccessToken authorises calls to the account API.
	// Usage: Authorization: Bearer <access_token> on the display-name lookup
	AccessToken string `json:"access_token"`

	// RefreshToken is returned because the "offline" scope is requested.
	// Usage: none here; refreshing tokens is not part of the login pipeline
	RefreshToken string `json:"refresh_token"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 1800
	ExpiresIn int64 `json:"expires_in"`

	// IDToken is the signed JWT asserting who logged in.
	// Usage: id_token_hint for the session request, and the source of sub/nickname
	IDToken string `json:"id_token"`

	// Scope is the space separated list of granted scopes.
	Scope string `json:"scope"`

	// TokenType is how to present the access token, normally "Bearer".
	TokenType string `json:"token_type"`
}
