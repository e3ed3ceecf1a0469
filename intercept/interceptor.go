package intercept

import (
	"context"
	"net/url"

	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/rs/zerolog/log"
)

// Target describes one interception: where the surface starts, which redirect ends it and
// what that redirect must carry.
type Target struct {
	StartURL       *url.URL
	RedirectPrefix string
	Source         ParamSource
	Required       []string
	Window         WindowOptions
}

// Interceptor turns a browser surface into a one shot wait for a redirect.
type Interceptor struct {
	browser Browser
}

// NewInterceptor returns an Interceptor opening its surfaces in browser.
func NewInterceptor(browser Browser) *Interceptor {
	return &Interceptor{browser: browser}
}

// Intercept opens a surface at target.StartURL and blocks until the first navigation whose
// destination matches target.RedirectPrefix. That navigation is cancelled and its parameters
// returned. It fails with an *errors.InvalidRedirectError if a required parameter is missing,
// with errors.ErrFlowCancelled if the surface goes away first, or with ctx.Err().
// The surface is closed before Intercept returns.
func (i *Interceptor) Intercept(ctx context.Context, target Target) (Params, error) {
	logger := log.With().Str("surface", target.Window.Label).Logger()

	slot, results := newCompletion()
	onNavigate := func(destination *url.URL) bool {
		raw := destination.String()
		if !MatchesPrefix(raw, target.RedirectPrefix) {
			return true
		}

		sender := slot.take()
		if sender == nil {
			logger.Debug().Msg("ignoring repeated redirect after completion")
			return false
		}

		params := ExtractParams(destination, target.Source)
		if missing := params.Missing(target.Required); len(missing) > 0 {
			logger.Warn().Strs("missing", missing).Str("source", target.Source.String()).Msg("redirect is missing parameters")
			sender <- result{err: &apperrors.InvalidRedirectError{URL: raw, Missing: missing}}
			return false
		}

		logger.Debug().Msg("redirect intercepted")
		sender <- result{params: params}
		return false
	}

	surface, err := i.browser.Open(ctx, target.StartURL, target.Window, onNavigate)
	if err != nil {
		return nil, apperrors.Wrapf(err, "open %s surface", target.Window.Label)
	}
	defer func() {
		if err := surface.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close surface")
		}
	}()

	select {
	case res := <-results:
		return res.params, res.err
	case <-surface.Done():
		if sender := slot.take(); sender != nil {
			logger.Debug().Msg("surface closed before redirect")
			return nil, apperrors.ErrFlowCancelled
		}
		// a redirect won the race and its result is already buffered
		res := <-results
		return res.params, res.err
	case <-ctx.Done():
		slot.take()
		return nil, ctx.Err()
	}
}
