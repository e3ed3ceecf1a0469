// Package auth drives the launcher login: authorization in a visible browser surface, token
// exchange, game session, characters and account, reporting progress as it goes.
package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/launcher-auth/accounts"
	"github.com/jrsteele09/launcher-auth/flow"
	"github.com/jrsteele09/launcher-auth/intercept"
	"github.com/jrsteele09/launcher-auth/internal/config"
	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/internal/transport"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
	"github.com/jrsteele09/launcher-auth/sessions"
	"github.com/jrsteele09/launcher-auth/token"
	"github.com/rs/zerolog/log"
)

// LoginWindow is the visible surface the user logs in through.
var LoginWindow = intercept.WindowOptions{
	Label:     "auth",
	Title:     "Login with Jagex Account",
	Width:     480,
	Height:    700,
	Visible:   true,
	Focused:   true,
	Placement: intercept.PlacementBesideMain,
	Gap:       32,
}

var authorizationParams = []string{oauthmodel.ParamCode, oauthmodel.ParamState}

// LoginService runs one login per Login call. Concurrent logins are not supported.
type LoginService struct {
	cfg         config.Config
	notifier    Notifier
	httpClient  *http.Client
	initiator   *flow.Initiator
	interceptor *intercept.Interceptor
	exchanger   *token.Exchanger
	establisher *sessions.Establisher
	resolver    *accounts.Resolver
}

// LoginServiceOption defines a function type to modify the LoginService instance.
type LoginServiceOption func(*LoginService)

// WithHTTPClient sets the client used for every provider call (primarily for testing).
func WithHTTPClient(client *http.Client) LoginServiceOption {
	return func(s *LoginService) {
		s.httpClient = client
	}
}

// NewLoginService wires the pipeline stages. browser hosts the login surfaces and notifier
// receives the progress events.
func NewLoginService(cfg config.Config, browser intercept.Browser, notifier Notifier, options ...LoginServiceOption) (*LoginService, error) {
	if cfg == nil {
		return nil, apperrors.New("[NewLoginService] config is required")
	}
	if browser == nil {
		return nil, apperrors.New("[NewLoginService] browser is required")
	}
	if notifier == nil {
		return nil, apperrors.New("[NewLoginService] notifier is required")
	}

	s := &LoginService{
		cfg:      cfg,
		notifier: notifier,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = transport.NewClient(cfg.GetHTTPTimeout())
	}

	s.initiator = flow.NewInitiator(cfg, s.httpClient)
	s.interceptor = intercept.NewInterceptor(browser)
	s.exchanger = token.NewExchanger(s.httpClient)
	s.establisher = sessions.NewEstablisher(cfg, s.interceptor, s.httpClient)
	s.resolver = accounts.NewResolver(cfg, s.httpClient)
	return s, nil
}

// Login runs the whole pipeline. On success the account has been announced with
// account-added followed by login-complete. On failure a *LoginError is returned and
// neither event is sent.
func (s *LoginService) Login(ctx context.Context) (*accounts.Account, error) {
	f, err := s.initiator.Begin(ctx)
	if err != nil {
		return nil, s.fail(nil, StageBegin, err)
	}

	if err := s.progress(ctx, ProgressAuthorizing); err != nil {
		return nil, s.fail(f, StageNotify, err)
	}
	params, err := s.authorize(ctx, f)
	if err != nil {
		return nil, s.fail(f, StageAuthorize, err)
	}

	if err := s.progress(ctx, ProgressGettingToken); err != nil {
		return nil, s.fail(f, StageNotify, err)
	}
	tok, err := s.exchanger.Exchange(ctx, f, params.Get(oauthmodel.ParamCode), params.Get(oauthmodel.ParamState))
	if err != nil {
		return nil, s.fail(f, StageToken, err)
	}

	if err := s.progress(ctx, ProgressGettingSession); err != nil {
		return nil, s.fail(f, StageNotify, err)
	}
	session, err := s.establisher.Establish(ctx, f, tok)
	if err != nil {
		return nil, s.fail(f, StageSession, err)
	}

	if err := s.progress(ctx, ProgressGettingCharacters); err != nil {
		return nil, s.fail(f, StageNotify, err)
	}
	characters, err := s.resolver.Characters(ctx, session)
	if err != nil {
		return nil, s.fail(f, StageCharacters, err)
	}
	info, err := s.resolver.AccountInfo(ctx, f, tok)
	if err != nil {
		return nil, s.fail(f, StageAccount, err)
	}

	account := accounts.NewAccount(info, characters)
	if err := s.notifier.Emit(ctx, Event{Name: EventAccountAdded, Payload: account}); err != nil {
		return nil, s.fail(f, StageNotify, err)
	}
	if err := s.notifier.Emit(ctx, Event{Name: EventLoginComplete, Payload: ""}); err != nil {
		return nil, s.fail(f, StageNotify, err)
	}

	logger := f.Logger()
	logger.Info().Int("characters", len(account.Characters)).Msg("Login complete")
	return account, nil
}

func (s *LoginService) authorize(ctx context.Context, f *flow.AuthFlow) (intercept.Params, error) {
	startURL, err := url.Parse(f.AuthorizationURL)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[auth authorize] authorization url")
	}
	return s.interceptor.Intercept(ctx, intercept.Target{
		StartURL:       startURL,
		RedirectPrefix: s.cfg.GetLauncherRedirectURI(),
		Source:         intercept.FromQuery,
		Required:       authorizationParams,
		Window:         LoginWindow,
	})
}

func (s *LoginService) progress(ctx context.Context, message string) error {
	return s.notifier.Emit(ctx, Event{Name: EventLoginProgress, Payload: message})
}

func (s *LoginService) fail(f *flow.AuthFlow, stage Stage, err error) error {
	logger := log.Logger
	if f != nil {
		logger = f.Logger()
	}

	evt := logger.Error()
	if apperrors.Is(err, apperrors.ErrFlowCancelled) {
		evt = logger.Warn()
	}
	evt = evt.Err(err).Str("stage", string(stage))
	var invalid *apperrors.InvalidRedirectError
	if apperrors.As(err, &invalid) {
		// logged for diagnostics
		evt = evt.Str("redirect_url", invalid.URL)
	}
	evt.Msg("Login failed")
	return &LoginError{Stage: stage, Err: err}
}
