// Package fakeprovider runs an in-process identity provider, game-session service and account
// API for tests. It plays the provider's part of the login: it answers discovery and JWKS
// requests, turns authorization URLs into redirects, exchanges codes for RS256 signed id
// tokens and serves sessions, characters and display names.
package fakeprovider

import (
	"fmt"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/launcher-auth/intercept/fakebrowser"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
)

const (
	LauncherClientID    = "com_jagex_auth_desktop_launcher"
	LauncherRedirectURI = "https://secure.runescape.com/m=weblogin/launcher-redirect"
	SessionClientID     = "1fddee4e-b100-4f4e-b2b0-097f9088f9d2"
	SessionRedirectURI  = "http://localhost"

	signingKeyID   = "fake-provider-key"
	idTokenTTL     = time.Hour
	accessTokenTTL = 3600
)

// Identity is the user the provider logs in.
type Identity struct {
	Subject     string
	Nickname    string
	Email       string
	DisplayName string
	UserID      string
}

// DefaultCharacters is the body of the characters endpoint unless WithCharacters is used.
const DefaultCharacters = `[{"accountId":"1001","displayName":"Bobby","userHash":"hash-1001"}]`

type grant struct {
	clientID    string
	redirectURI string
	scopes      []string
	nonce       string
	challenge   string
}

type failure struct {
	status int
	body   string
}

// Provider is a running fake. Create it with New and stop it with Close.
type Provider struct {
	server *httptest.Server
	keys   *keyPair

	mu           sync.Mutex
	clients      map[string]string
	codes        []string
	hybridToken  string
	identity     Identity
	sessionID    string
	characters   string
	grants       map[string]grant
	accessTokens map[string]bool
	failures     map[string]failure
	hits         map[string]int
	lastHint     string
	lastIDToken  string
}

// Option configures a Provider.
type Option func(*Provider)

// WithCodes makes the authorization endpoint hand out these codes, in order, before falling
// back to random ones.
func WithCodes(codes ...string) Option {
	return func(p *Provider) {
		p.codes = append(p.codes, codes...)
	}
}

// WithHybridIDToken makes hybrid (code id_token) redirects carry this literal id token.
func WithHybridIDToken(idToken string) Option {
	return func(p *Provider) {
		p.hybridToken = idToken
	}
}

func WithIdentity(identity Identity) Option {
	return func(p *Provider) {
		p.identity = identity
	}
}

func WithSessionID(sessionID string) Option {
	return func(p *Provider) {
		p.sessionID = sessionID
	}
}

// WithCharacters sets the raw JSON body of the characters endpoint.
func WithCharacters(body string) Option {
	return func(p *Provider) {
		p.characters = body
	}
}

// New starts a provider on a loopback httptest server.
func New(options ...Option) (*Provider, error) {
	keys, err := generateKeyPair(signingKeyID)
	if err != nil {
		return nil, err
	}
	p := &Provider{
		keys: keys,
		clients: map[string]string{
			LauncherClientID: LauncherRedirectURI,
			SessionClientID:  SessionRedirectURI,
		},
		identity: Identity{
			Subject:     "user-1",
			Nickname:    "Bob",
			DisplayName: "BobDisplay",
			UserID:      "10001",
		},
		sessionID:    "session-" + uuid.NewString(),
		characters:   DefaultCharacters,
		grants:       make(map[string]grant),
		accessTokens: make(map[string]bool),
		failures:     make(map[string]failure),
		hits:         make(map[string]int),
	}
	for _, option := range options {
		option(p)
	}
	p.server = httptest.NewServer(p.routes())
	return p, nil
}

// Close shuts the server down.
func (p *Provider) Close() {
	p.server.Close()
}

// Issuer is the provider's issuer URL.
func (p *Provider) Issuer() string {
	return p.server.URL
}

// GameSessionURL is the base of the session and character endpoints.
func (p *Provider) GameSessionURL() string {
	return p.server.URL + RouteGameSessionBase
}

// APIURL is the base of the account API.
func (p *Provider) APIURL() string {
	return p.server.URL
}

// Overrides points a configuration at this provider.
func (p *Provider) Overrides() map[string]any {
	return map[string]any{
		"provider.issuer":           p.Issuer(),
		"provider.game_session_url": p.GameSessionURL(),
		"provider.api_url":          p.APIURL(),
	}
}

// Fail makes every request to route answer with status and body until Recover is called.
func (p *Provider) Fail(route string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[route] = failure{status: status, body: body}
}

// Recover clears a failure set with Fail.
func (p *Provider) Recover(route string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failures, route)
}

// Hits returns how many requests route has received.
func (p *Provider) Hits(route string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[route]
}

// LastIDTokenHint returns the id_token_hint of the most recent hybrid authorization.
func (p *Provider) LastIDTokenHint() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHint
}

// LastSessionIDToken returns the idToken posted to the session endpoint most recently.
func (p *Provider) LastSessionIDToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastIDToken
}

// Authorize plays the authorization endpoint for an already logged in user: it validates
// authURL and returns the redirect the provider would send the browser to. Code requests
// redirect with a query, hybrid requests with a fragment that also carries an id token.
func (p *Provider) Authorize(authURL string) (string, error) {
	req, err := oauthmodel.ParseAuthorizationRequest(authURL)
	if err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	registered, ok := p.clients[req.ClientID]
	if !ok {
		return "", fmt.Errorf("unknown client %q", req.ClientID)
	}
	if registered != req.RedirectURI {
		return "", fmt.Errorf("redirect uri %q is not registered for %s", req.RedirectURI, req.ClientID)
	}

	code := p.nextCode()
	p.grants[code] = grant{
		clientID:    req.ClientID,
		redirectURI: req.RedirectURI,
		scopes:      req.Scopes,
		nonce:       req.Nonce,
		challenge:   req.CodeChallenge,
	}

	values := url.Values{}
	values.Set(oauthmodel.ParamState, req.State)

	if req.ResponseType == oauthmodel.CodeIDTokenResponseType {
		p.lastHint = req.IDTokenHint
		if req.IDTokenHint == "" {
			values.Set("error", "login_required")
			return req.RedirectURI + "#" + values.Encode(), nil
		}
		idToken := p.hybridToken
		if idToken == "" {
			idToken, err = p.mintIDToken(req.ClientID, req.Nonce)
			if err != nil {
				return "", err
			}
		}
		values.Set(oauthmodel.ParamCode, code)
		values.Set(oauthmodel.ParamIDToken, idToken)
		return req.RedirectURI + "#" + values.Encode(), nil
	}

	values.Set(oauthmodel.ParamCode, code)
	sep := "?"
	if strings.Contains(req.RedirectURI, "?") {
		sep = "&"
	}
	return req.RedirectURI + sep + values.Encode(), nil
}

// BrowserScript returns a fakebrowser script that authorizes the surface's start URL and
// navigates to the resulting redirect. The surface is closed by the user if authorization fails.
func (p *Provider) BrowserScript() fakebrowser.Script {
	return func(s *fakebrowser.Surface) {
		redirect, err := p.Authorize(s.StartURL.String())
		if err != nil {
			s.UserClose()
			return
		}
		s.Navigate(redirect)
	}
}

// IDToken mints an id token for the configured identity.
func (p *Provider) IDToken(clientID, nonce string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mintIDToken(clientID, nonce)
}

// SignClaims signs arbitrary claims with the provider key.
func (p *Provider) SignClaims(claims jwt.MapClaims) (string, error) {
	return p.keys.sign(claims)
}

func (p *Provider) nextCode() string {
	if len(p.codes) > 0 {
		code := p.codes[0]
		p.codes = p.codes[1:]
		return code
	}
	return uuid.NewString()
}

// mintIDToken must be called with p.mu held.
func (p *Provider) mintIDToken(clientID, nonce string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":      p.server.URL,
		"sub":      p.identity.Subject,
		"aud":      clientID,
		"iat":      now.Unix(),
		"exp":      now.Add(idTokenTTL).Unix(),
		"nickname": p.identity.Nickname,
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	if p.identity.Email != "" {
		claims["email"] = p.identity.Email
	}
	return p.keys.sign(claims)
}

// Start is New for tests: the provider is closed when the test ends.
func Start(t testing.TB, options ...Option) *Provider {
	t.Helper()
	p, err := New(options...)
	if err != nil {
		t.Fatalf("start fake provider: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}
