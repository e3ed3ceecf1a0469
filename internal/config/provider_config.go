package config

import (
	"strings"

	"github.com/spf13/viper"
)

// ProviderConfig describes the identity provider and the downstream game-session service.
type ProviderConfig interface {
	// GetIssuerURL is the OIDC issuer; discovery is read from <issuer>/.well-known/openid-configuration
	GetIssuerURL() string

	GetLauncherClientID() string
	GetLauncherRedirectURI() string
	GetLauncherScopes() []string

	GetSessionClientID() string
	GetSessionRedirectURI() string
	GetSessionScopes() []string

	// GetGameSessionURL is the base of the session-issuance and character endpoints
	GetGameSessionURL() string
	// GetAPIURL is the base of the account API (display-name lookup)
	GetAPIURL() string
}

const (
	issuerKey              = "provider.issuer"
	launcherClientIDKey    = "provider.launcher.client_id"
	launcherRedirectURIKey = "provider.launcher.redirect_uri"
	launcherScopesKey      = "provider.launcher.scopes"
	sessionClientIDKey     = "provider.session.client_id"
	sessionRedirectURIKey  = "provider.session.redirect_uri"
	sessionScopesKey       = "provider.session.scopes"
	gameSessionURLKey      = "provider.game_session_url"
	apiURLKey              = "provider.api_url"
)

const (
	defaultIssuer              = "https://account.jagex.com"
	defaultLauncherClientID    = "com_jagex_auth_desktop_launcher"
	defaultLauncherRedirectURI = "https://secure.runescape.com/m=weblogin/launcher-redirect"
	defaultSessionClientID     = "1fddee4e-b100-4f4e-b2b0-097f9088f9d2"
	defaultSessionRedirectURI  = "http://localhost"
	defaultGameSessionURL      = "https://auth.jagex.com/game-session/v1"
	defaultAPIURL              = "https://api.jagex.com"
)

var (
	defaultLauncherScopes = []string{
		"openid",
		"offline",
		"gamesso.token.create",
		"user.profile.read",
		"user.entitlement.read",
		"user.game.read",
		"user.sku.read",
		"user.voucher.redeem",
	}
	defaultSessionScopes = []string{"openid", "offline"}
)

type Provider struct {
	v *viper.Viper
}

var _ ProviderConfig = Provider{}

func (p Provider) GetIssuerURL() string {
	return strings.TrimSuffix(p.v.GetString(issuerKey), "/")
}

func (p Provider) GetLauncherClientID() string {
	return p.v.GetString(launcherClientIDKey)
}

func (p Provider) GetLauncherRedirectURI() string {
	return p.v.GetString(launcherRedirectURIKey)
}

func (p Provider) GetLauncherScopes() []string {
	return p.v.GetStringSlice(launcherScopesKey)
}

func (p Provider) GetSessionClientID() string {
	return p.v.GetString(sessionClientIDKey)
}

func (p Provider) GetSessionRedirectURI() string {
	return p.v.GetString(sessionRedirectURIKey)
}

func (p Provider) GetSessionScopes() []string {
	return p.v.GetStringSlice(sessionScopesKey)
}

func (p Provider) GetGameSessionURL() string {
	return strings.TrimSuffix(p.v.GetString(gameSessionURLKey), "/")
}

func (p Provider) GetAPIURL() string {
	return strings.TrimSuffix(p.v.GetString(apiURLKey), "/")
}
