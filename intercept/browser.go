// Package intercept waits for an identity provider to redirect an ephemeral browser surface
// to a known URI and extracts the parameters carried by that redirect.
package intercept

import (
	"context"
	"net/url"
)

// NavigationFunc is called for every navigation attempt on a surface, possibly from
// several goroutines and possibly more than once for the same destination.
// Returning false cancels the navigation.
type NavigationFunc func(destination *url.URL) bool

// Browser opens browser surfaces. It is implemented by the desktop shell.
type Browser interface {
	// Open creates a surface showing startURL and reports every navigation attempt
	// (including the initial one, if the implementation observes it) to onNavigate.
	// A surface with the same label that is still open is replaced.
	Open(ctx context.Context, startURL *url.URL, opts WindowOptions, onNavigate NavigationFunc) (Surface, error)
}

// Surface is one open browser surface.
type Surface interface {
	// Done is closed once the surface is gone, whether the user closed it or Close was called.
	Done() <-chan struct{}
	// Close tears the surface down. It is safe to call more than once.
	Close() error
}

// Placement says where a visible surface should appear.
type Placement int

const (
	// PlacementCenter centres the surface on screen.
	PlacementCenter Placement = iota
	// PlacementBesideMain puts the surface to the right of the main window, top aligned.
	PlacementBesideMain
)

// WindowOptions describe the surface to the shell.
type WindowOptions struct {
	Label       string
	Title       string
	Width       float64
	Height      float64
	Visible     bool
	Focused     bool
	SkipTaskbar bool
	Placement   Placement
	// Gap is the horizontal distance from the main window for PlacementBesideMain.
	Gap float64
}
