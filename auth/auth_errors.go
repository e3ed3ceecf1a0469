package auth

import "fmt"

// Stage names the pipeline step a login failed in.
type Stage string

const (
	StageBegin      Stage = "begin"
	StageAuthorize  Stage = "authorize"
	StageToken      Stage = "token"
	StageSession    Stage = "session"
	StageCharacters Stage = "characters"
	StageAccount    Stage = "account"
	StageNotify     Stage = "notify"
)

var stageDescriptions = map[Stage]string{
	StageBegin:      "contacting the identity provider",
	StageAuthorize:  "waiting for the login redirect",
	StageToken:      "exchanging the authorization code",
	StageSession:    "fetching the game session",
	StageCharacters: "fetching characters",
	StageAccount:    "fetching account details",
	StageNotify:     "reporting progress",
}

// LoginError is the only error Login returns. Err keeps the underlying error kind,
// so errors.Is(err, errors.ErrFlowCancelled) and friends work on it.
type LoginError struct {
	Stage Stage
	Err   error
}

func (e *LoginError) Error() string {
	description, ok := stageDescriptions[e.Stage]
	if !ok {
		description = string(e.Stage)
	}
	return fmt.Sprintf("login failed while %s: %v", description, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
