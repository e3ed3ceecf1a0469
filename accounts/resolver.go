package accounts

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/launcher-auth/flow"
	"github.com/jrsteele09/launcher-auth/internal/config"
	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/internal/transport"
	"github.com/jrsteele09/launcher-auth/internal/utils"
	"github.com/jrsteele09/launcher-auth/oauthmodel"
	"github.com/jrsteele09/launcher-auth/sessions"
)

// ResolverConfig is the configuration a Resolver reads.
type ResolverConfig interface {
	config.ProviderConfig
	config.SecurityConfig
}

// Resolver looks up the characters of a game session and the identity behind a token.
type Resolver struct {
	cfg        ResolverConfig
	httpClient *http.Client
}

// NewResolver returns a Resolver; httpClient is used without redirects.
func NewResolver(cfg ResolverConfig, httpClient *http.Client) *Resolver {
	return &Resolver{cfg: cfg, httpClient: transport.WithoutRedirects(httpClient)}
}

type characterResponse struct {
	AccountID   flexString `json:"accountId"`
	DisplayName flexString `json:"displayName"`
	UserHash    flexString `json:"userHash"`
}

type displayNameResponse struct {
	DisplayName string     `json:"displayName"`
	ID          flexString `json:"id"`
	UserID      flexString `json:"userId"`
}

type idTokenClaims struct {
	Subject  string  `json:"sub"`
	Nickname string  `json:"nickname"`
	Email    string  `json:"email"`
	Nonce    string  `json:"nonce"`
}

// Characters lists the characters the game session can play, in provider order.
func (r *Resolver) Characters(ctx context.Context, session *sessions.GameSession) ([]GameCharacter, error) {
	req, err := transport.NewJSONRequest(ctx, http.MethodGet, r.cfg.GetGameSessionURL()+"/accounts", nil, session.SessionID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[accounts Characters]")
	}

	var resp []characterResponse
	if err := transport.DoJSON(r.httpClient, req, &resp); err != nil {
		return nil, apperrors.Wrapf(err, "[accounts Characters]")
	}

	characters := make([]GameCharacter, 0, len(resp))
	for _, c := range resp {
		characters = append(characters, GameCharacter{
			AccountID:   string(c.AccountID),
			DisplayName: string(c.DisplayName),
			UserHash:    string(c.UserHash),
			// TODO: set from the entitlement API once its membership field is confirmed
			IsMembers: false,
		})
	}
	return characters, nil
}

// AccountInfo verifies the launcher id token, checks its nonce against the flow and fetches
// the account's display name with the access token.
func (r *Resolver) AccountInfo(ctx context.Context, f *flow.AuthFlow, tok *oauthmodel.OAuthToken) (*AccountInfo, error) {
	claims, err := r.verifyIDToken(ctx, f, tok.IDToken)
	if err != nil {
		return nil, err
	}

	displayNameURL := r.cfg.GetAPIURL() + "/v1/users/" + url.PathEscape(claims.Subject) + "/displayName"
	req, err := transport.NewJSONRequest(ctx, http.MethodGet, displayNameURL, nil, tok.AccessToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[accounts AccountInfo]")
	}

	var resp displayNameResponse
	if err := transport.DoJSON(r.httpClient, req, &resp); err != nil {
		return nil, apperrors.Wrapf(err, "[accounts AccountInfo]")
	}

	return &AccountInfo{
		Subject:     claims.Subject,
		Nickname:    claims.Nickname,
		Email:       utils.NonEmptyPtr(claims.Email),
		DisplayName: resp.DisplayName,
		ID:          string(resp.ID),
		UserID:      string(resp.UserID),
	}, nil
}

func (r *Resolver) verifyIDToken(ctx context.Context, f *flow.AuthFlow, rawIDToken string) (*idTokenClaims, error) {
	logger := f.Logger()

	// structure only; claims and signature are checked by the verifier below
	unverified, _, err := jwt.NewParser().ParseUnverified(rawIDToken, jwt.MapClaims{})
	if err != nil {
		return nil, apperrors.WrapKind(apperrors.ErrInvalidIDToken, err, "[accounts AccountInfo] decode id token")
	}
	verifySignature := r.cfg.GetVerifyIDTokenSignature()
	logger.Debug().
		Interface("alg", unverified.Header["alg"]).
		Interface("kid", unverified.Header["kid"]).
		Bool("verify_signature", verifySignature).
		Msg("Verifying id token")

	verifier := f.Provider.Verifier(&oidc.Config{
		ClientID:                   f.OAuth2Config.ClientID,
		InsecureSkipSignatureCheck: !verifySignature,
	})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperrors.WrapKind(apperrors.ErrInvalidIDToken, err, "[accounts AccountInfo] verify id token")
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperrors.WrapKind(apperrors.ErrMalformedResponse, err, "[accounts AccountInfo] id token claims")
	}
	if subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(f.Nonce)) != 1 {
		return nil, apperrors.WrapKind(apperrors.ErrInvalidIDToken, apperrors.New("nonce does not match the login flow"), "[accounts AccountInfo]")
	}
	if claims.Subject == "" {
		return nil, apperrors.WrapKind(apperrors.ErrInvalidIDToken, apperrors.New("no sub claim"), "[accounts AccountInfo]")
	}
	return &claims, nil
}
