// Package authfakes holds in-memory doubles of the auth package's collaborators.
package authfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/launcher-auth/auth"
)

var _ auth.Notifier = (*Recorder)(nil)

// Recorder is a Notifier that keeps every event it is given.
type Recorder struct {
	mu     sync.Mutex
	events []auth.Event
}

func (r *Recorder) Emit(_ context.Context, event auth.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []auth.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auth.Event(nil), r.events...)
}
