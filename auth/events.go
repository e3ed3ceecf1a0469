package auth

import "context"

// Event names the UI layer listens for.
const (
	EventLoginProgress = "login-progress"
	EventAccountAdded  = "account-added"
	EventLoginComplete = "login-complete"
)

// Progress messages, emitted in this order.
const (
	ProgressAuthorizing       = "Authorizing..."
	ProgressGettingToken      = "Getting Token..."
	ProgressGettingSession    = "Getting Session..."
	ProgressGettingCharacters = "Getting Characters..."
)

// Event is one signal to the UI layer. Payload is a progress message for login-progress,
// the *accounts.Account for account-added and "" for login-complete.
type Event struct {
	Name    string
	Payload any
}

// Notifier delivers events to the UI layer. An error aborts the login.
type Notifier interface {
	Emit(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event) error

func (f NotifierFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}
