// Package flow starts a PKCE authorization-code login against the identity provider.
package flow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/launcher-auth/internal/config"
	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const tokenBytes = 32

// AuthFlow is everything one login attempt needs to complete the authorization-code exchange.
// It is built by Initiator.Begin and is read-only afterwards. Nothing in it is ever persisted.
type AuthFlow struct {
	// OAuth2Config is the launcher client configuration, with endpoints from discovery.
	OAuth2Config *oauth2.Config

	// Provider is the discovered identity provider.
	Provider *oidc.Provider

	// AuthorizationURL is the URL the login surface opens.
	AuthorizationURL string

	// Challenge is BASE64URL(SHA256(Verifier)), sent in the authorization URL.
	Challenge string

	// Verifier is the PKCE secret sent only to the token endpoint.
	// Security: never log this value
	Verifier string

	// CSRFToken is the state parameter of the authorization URL.
	CSRFToken string

	// Nonce is bound into the id token by the provider.
	Nonce string

	// AttemptID correlates log lines of one login attempt. It is never sent anywhere.
	AttemptID string
}

// Logger returns the global logger tagged with the attempt id.
func (f *AuthFlow) Logger() zerolog.Logger {
	return log.With().Str("attempt", f.AttemptID).Logger()
}

// Initiator creates AuthFlows from the configured launcher client.
type Initiator struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewInitiator returns an Initiator that runs discovery through httpClient.
func NewInitiator(cfg config.ProviderConfig, httpClient *http.Client) *Initiator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Initiator{cfg: cfg, httpClient: httpClient}
}

// Begin discovers the provider and generates a fresh PKCE verifier, CSRF token and nonce.
func (i *Initiator) Begin(ctx context.Context) (*AuthFlow, error) {
	issuer := i.cfg.GetIssuerURL()
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, i.httpClient), issuer)
	if err != nil {
		return nil, apperrors.WrapKind(apperrors.ErrTransport, err, "[flow Begin] discover %s", issuer)
	}

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	oauthConfig := &oauth2.Config{
		ClientID:    i.cfg.GetLauncherClientID(),
		RedirectURL: i.cfg.GetLauncherRedirectURI(),
		Scopes:      i.cfg.GetLauncherScopes(),
		Endpoint:    endpoint,
	}

	csrfToken, err := RandomToken()
	if err != nil {
		return nil, apperrors.Wrapf(err, "[flow Begin] csrf token")
	}
	nonce, err := RandomToken()
	if err != nil {
		return nil, apperrors.Wrapf(err, "[flow Begin] nonce")
	}
	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)

	req := oauthmodel.AuthorizationRequest{
		ResponseType:        oauthmodel.CodeResponseType,
		State:               csrfToken,
		Nonce:               nonce,
		CodeChallenge:       challenge,
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrapf(err, "[flow Begin] authorization request")
	}

	f := &AuthFlow{
		OAuth2Config:     oauthConfig,
		Provider:         provider,
		AuthorizationURL: req.AuthCodeURL(oauthConfig),
		Challenge:        challenge,
		Verifier:         verifier,
		CSRFToken:        csrfToken,
		Nonce:            nonce,
		AttemptID:        uuid.NewString(),
	}
	logger := f.Logger()
	logger.Debug().Str("issuer", issuer).Str("client_id", oauthConfig.ClientID).Msg("Login flow started")
	return f, nil
}

// RandomToken returns 32 random bytes, base64url encoded without padding.
func RandomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
