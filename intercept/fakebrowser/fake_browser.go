// Package fakebrowser is an in-memory intercept.Browser for tests. A script attached with
// OnOpen plays the identity provider's part by driving navigations on each new surface.
package fakebrowser

import (
	"context"
	"net/url"
	"sync"

	"github.com/jrsteele09/launcher-auth/intercept"
)

// Script runs once per opened surface, on its own goroutine.
type Script func(s *Surface)

// Browser records every surface it opens.
type Browser struct {
	mu       sync.Mutex
	scripts  map[string]Script
	fallback Script
	surfaces []*Surface
	OpenErr  error
}

// New returns an empty Browser.
func New() *Browser {
	return &Browser{scripts: make(map[string]Script)}
}

// OnOpen registers the script for surfaces with the given label. An empty label sets the
// script used when no label specific one exists.
func (b *Browser) OnOpen(label string, script Script) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	if label == "" {
		b.fallback = script
	} else {
		b.scripts[label] = script
	}
	return b
}

// Open implements intercept.Browser.
func (b *Browser) Open(_ context.Context, startURL *url.URL, opts intercept.WindowOptions, onNavigate intercept.NavigationFunc) (intercept.Surface, error) {
	b.mu.Lock()
	if b.OpenErr != nil {
		b.mu.Unlock()
		return nil, b.OpenErr
	}
	for _, existing := range b.surfaces {
		if existing.Options.Label == opts.Label {
			_ = existing.Close()
		}
	}
	s := &Surface{
		StartURL:   startURL,
		Options:    opts,
		onNavigate: onNavigate,
		done:       make(chan struct{}),
	}
	b.surfaces = append(b.surfaces, s)
	script, ok := b.scripts[opts.Label]
	if !ok {
		script = b.fallback
	}
	b.mu.Unlock()

	if script != nil {
		go script(s)
	}
	return s, nil
}

// Surfaces returns the surfaces opened so far, oldest first.
func (b *Browser) Surfaces() []*Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Surface(nil), b.surfaces...)
}

// Surface is a fake intercept.Surface.
type Surface struct {
	StartURL *url.URL
	Options  intercept.WindowOptions

	onNavigate intercept.NavigationFunc
	done       chan struct{}
	once       sync.Once
	closedBy   string
	mu         sync.Mutex
}

// Navigate simulates a navigation attempt and reports whether it was allowed to proceed.
// Navigations on a closed surface are dropped.
func (s *Surface) Navigate(raw string) bool {
	if s.Closed() {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return s.onNavigate(u)
}

// UserClose simulates the user dismissing the surface.
func (s *Surface) UserClose() {
	s.close("user")
}

// Close implements intercept.Surface.
func (s *Surface) Close() error {
	s.close("program")
	return nil
}

func (s *Surface) close(by string) {
	s.once.Do(func() {
		s.mu.Lock()
		s.closedBy = by
		s.mu.Unlock()
		close(s.done)
	})
}

// Done implements intercept.Surface.
func (s *Surface) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether the surface has gone away.
func (s *Surface) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// ClosedBy returns "user", "program" or "" while the surface is open.
func (s *Surface) ClosedBy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedBy
}
