// Package sessions turns a logged in user's id token into a game session id.
package sessions

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/jrsteele09/launcher-auth/flow"
	"github.com/jrsteele09/launcher-auth/intercept"
	"github.com/jrsteele09/launcher-auth/internal/config"
	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/internal/transport"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
	"golang.org/x/oauth2"
)

// GameSession is what the hybrid redirect and the session-issuance call produce.
// An Establisher only returns one once every field is set.
type GameSession struct {
	Code      string // authorization code from the hybrid redirect
	IDToken   string // id token from the hybrid redirect, posted to the issuance API
	State     string // echoed state, already checked against the one sent
	SessionID string // game session id used as the bearer for the characters endpoint
}

// Window is the hidden surface the hybrid request runs in.
var Window = intercept.WindowOptions{
	Label:       "auth_session_id",
	Title:       "Fetching Session Id",
	Width:       500,
	Height:      500,
	Visible:     false,
	Focused:     false,
	SkipTaskbar: true,
	Placement:   intercept.PlacementCenter,
}

var hybridParams = []string{oauthmodel.ParamIDToken, oauthmodel.ParamCode, oauthmodel.ParamState}

type createSessionRequest struct {
	IDToken string `json:"idToken"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// Establisher runs the second, hidden authorization and exchanges its id token for a session.
type Establisher struct {
	cfg         config.ProviderConfig
	interceptor *intercept.Interceptor
	httpClient  *http.Client
}

// NewEstablisher returns an Establisher; httpClient is used without redirects.
func NewEstablisher(cfg config.ProviderConfig, interceptor *intercept.Interceptor, httpClient *http.Client) *Establisher {
	return &Establisher{
		cfg:         cfg,
		interceptor: interceptor,
		httpClient:  transport.WithoutRedirects(httpClient),
	}
}

// Establish asks the provider for a code and id token for the session client, reusing the
// launcher login through id_token_hint, and registers the id token with the game-session service.
func (e *Establisher) Establish(ctx context.Context, f *flow.AuthFlow, tok *oauthmodel.OAuthToken) (*GameSession, error) {
	logger := f.Logger()

	authURL, state, err := e.hybridAuthorizationURL(f, tok)
	if err != nil {
		return nil, err
	}
	startURL, err := url.Parse(authURL)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions Establish] authorization url")
	}

	params, err := e.interceptor.Intercept(ctx, intercept.Target{
		StartURL:       startURL,
		RedirectPrefix: e.cfg.GetSessionRedirectURI(),
		Source:         intercept.FromFragment,
		Required:       hybridParams,
		Window:         Window,
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions Establish] session redirect")
	}

	if subtle.ConstantTimeCompare([]byte(params.Get(oauthmodel.ParamState)), []byte(state)) != 1 {
		logger.Warn().Msg("Session redirect state does not match the request")
		return nil, apperrors.Wrapf(apperrors.ErrCSRFMismatch, "[sessions Establish]")
	}

	idToken := params.Get(oauthmodel.ParamIDToken)
	sessionID, err := e.createSession(ctx, idToken)
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("Game session established")
	return &GameSession{
		Code:      params.Get(oauthmodel.ParamCode),
		IDToken:   idToken,
		State:     params.Get(oauthmodel.ParamState),
		SessionID: sessionID,
	}, nil
}

// hybridAuthorizationURL builds the code id_token request for the session client and
// returns it with the fresh state it carries.
func (e *Establisher) hybridAuthorizationURL(f *flow.AuthFlow, tok *oauthmodel.OAuthToken) (string, string, error) {
	state, err := flow.RandomToken()
	if err != nil {
		return "", "", apperrors.Wrapf(err, "[sessions Establish] state")
	}
	nonce, err := flow.RandomToken()
	if err != nil {
		return "", "", apperrors.Wrapf(err, "[sessions Establish] nonce")
	}

	sessionConfig := &oauth2.Config{
		ClientID:    e.cfg.GetSessionClientID(),
		RedirectURL: e.cfg.GetSessionRedirectURI(),
		Scopes:      e.cfg.GetSessionScopes(),
		Endpoint:    f.OAuth2Config.Endpoint,
	}
	req := oauthmodel.AuthorizationRequest{
		ResponseType: oauthmodel.CodeIDTokenResponseType,
		State:        state,
		Nonce:        nonce,
		IDTokenHint:  tok.IDToken,
	}
	if err := req.Validate(); err != nil {
		return "", "", apperrors.Wrapf(err, "[sessions Establish] authorization request")
	}
	return req.AuthCodeURL(sessionConfig), state, nil
}

func (e *Establisher) createSession(ctx context.Context, idToken string) (string, error) {
	req, err := transport.NewJSONRequest(ctx, http.MethodPost, e.cfg.GetGameSessionURL()+"/sessions", createSessionRequest{IDToken: idToken}, "")
	if err != nil {
		return "", apperrors.Wrapf(err, "[sessions createSession]")
	}

	var resp createSessionResponse
	if err := transport.DoJSON(e.httpClient, req, &resp); err != nil {
		return "", apperrors.Wrapf(err, "[sessions createSession]")
	}
	if resp.SessionID == "" {
		return "", apperrors.WrapKind(apperrors.ErrMalformedResponse, apperrors.New("no sessionId in response"), "[sessions createSession]")
	}
	return resp.SessionID, nil
}
