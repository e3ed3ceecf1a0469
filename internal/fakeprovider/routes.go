package fakeprovider

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
	"github.com/rs/zerolog/log"
)

// Route path constants, relative to the server URL.
const (
	RouteDiscovery = "/.well-known/openid-configuration"
	RouteJWKS      = "/.well-known/jwks.json"
	RouteAuthorize = "/oauth2/auth"
	RouteToken     = "/oauth2/token"

	RouteGameSessionBase = "/game-session/v1"
	RouteSessions        = RouteGameSessionBase + "/sessions"
	RouteAccounts        = RouteGameSessionBase + "/accounts"

	RouteDisplayName = "/v1/users/{sub}/displayName"
)

const contentTypeJSON = "application/json"

func (p *Provider) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(p.countAndFail)

	r.Get(RouteDiscovery, p.discovery)
	r.Get(RouteJWKS, p.jwks)
	r.Get(RouteAuthorize, p.authorize)
	r.Post(RouteToken, p.token)
	r.Post(RouteSessions, p.createSession)
	r.Get(RouteAccounts, p.listCharacters)
	r.Get(RouteDisplayName, p.displayName)
	return r
}

// countAndFail records each hit against its route pattern and serves injected failures.
func (p *Provider) countAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routePattern(r)

		p.mu.Lock()
		p.hits[route]++
		f, failing := p.failures[route]
		p.mu.Unlock()

		log.Debug().Str("method", r.Method).Str("route", route).Msg("fake provider request")
		if failing {
			if strings.HasPrefix(strings.TrimSpace(f.body), "{") {
				w.Header().Set("Content-Type", contentTypeJSON)
			}
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routePattern resolves the request to the pattern it will be served by, so that
// /v1/users/abc/displayName counts against RouteDisplayName.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	tctx := chi.NewRouteContext()
	if rctx.Routes != nil && rctx.Routes.Match(tctx, r.Method, r.URL.Path) {
		return tctx.RoutePattern()
	}
	return r.URL.Path
}

func (p *Provider) discovery(w http.ResponseWriter, r *http.Request) {
	issuer := p.server.URL
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + RouteAuthorize,
		"token_endpoint":                        issuer + RouteToken,
		"jwks_uri":                              issuer + RouteJWKS,
		"response_types_supported":              []string{string(oauthmodel.CodeResponseType), string(oauthmodel.CodeIDTokenResponseType)},
		"response_modes_supported":              []string{string(oauthmodel.QueryResponseMode), string(oauthmodel.FragmentResponseMode)},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"code_challenge_methods_supported":      []string{string(oauthmodel.CodeMethodTypeS256)},
		"token_endpoint_auth_methods_supported": []string{"none"},
	})
}

func (p *Provider) jwks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.keys.jwks())
}

func (p *Provider) authorize(w http.ResponseWriter, r *http.Request) {
	redirect, err := p.Authorize(p.server.URL + r.URL.RequestURI())
	if err != nil {
		writeOAuthError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (p *Provider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
		return
	}
	req := oauthmodel.ParseTokenRequest(r.PostForm)
	if err := req.Validate(); err != nil {
		writeOAuthError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.grants[req.Code]
	if !ok {
		writeOAuthError(w, "invalid_grant", "The authorization code is invalid or has expired", http.StatusBadRequest)
		return
	}
	// codes are single use, even when the exchange fails
	delete(p.grants, req.Code)

	if g.clientID != req.ClientID {
		writeOAuthError(w, "invalid_client", "The code was issued to another client", http.StatusBadRequest)
		return
	}
	if g.redirectURI != req.RedirectURI {
		writeOAuthError(w, "invalid_grant", "The redirect_uri does not match the authorization request", http.StatusBadRequest)
		return
	}
	if g.challenge == "" {
		writeOAuthError(w, "invalid_grant", "The code was not issued with a PKCE challenge", http.StatusBadRequest)
		return
	}
	if err := req.VerifyChallenge(g.challenge); err != nil {
		writeOAuthError(w, "invalid_grant", err.Error(), http.StatusBadRequest)
		return
	}

	idToken, err := p.mintIDToken(g.clientID, g.nonce)
	if err != nil {
		writeOAuthError(w, "server_error", err.Error(), http.StatusInternalServerError)
		return
	}
	accessToken := "at-" + uuid.NewString()
	p.accessTokens[accessToken] = true

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, oauthmodel.OAuthToken{
		AccessToken:  accessToken,
		RefreshToken: "rt-" + uuid.NewString(),
		ExpiresIn:    accessTokenTTL,
		IDToken:      idToken,
		Scope:        strings.Join(g.scopes, " "),
		TokenType:    "bearer",
	})
}

func (p *Provider) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IDToken == "" {
		writeOAuthError(w, "invalid_request", "idToken is required", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.lastIDToken = body.IDToken
	sessionID, literal := p.sessionID, p.hybridToken
	p.mu.Unlock()

	// tokens this provider minted must still verify; a configured literal is taken as is
	if body.IDToken != literal {
		if _, err := p.keys.verify(body.IDToken); err != nil {
			writeOAuthError(w, "invalid_token", "idToken could not be verified", http.StatusUnauthorized)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}

func (p *Provider) listCharacters(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	sessionID, characters := p.sessionID, p.characters
	p.mu.Unlock()

	if bearer(r) != sessionID {
		writeOAuthError(w, "unauthorized", "unknown session", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	_, _ = w.Write([]byte(characters))
}

func (p *Provider) displayName(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	authorized := p.accessTokens[bearer(r)]
	identity := p.identity
	p.mu.Unlock()

	if !authorized {
		writeOAuthError(w, "unauthorized", "invalid access token", http.StatusUnauthorized)
		return
	}
	if chi.URLParam(r, "sub") != identity.Subject {
		writeOAuthError(w, "not_found", "unknown user", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"displayName": identity.DisplayName,
		"id":          identity.Subject,
		"userId":      identity.UserID,
	})
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOAuthError(w http.ResponseWriter, errorCode, description string, status int) {
	writeJSON(w, status, oauthmodel.ErrorResponse{ErrorCode: errorCode, ErrorDescription: description})
}
