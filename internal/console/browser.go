// Package console hosts login surfaces in the user's own web browser. The terminal stands in
// for the embedded webview: each surface URL is opened in the system browser and the user
// pastes back the address the provider redirected them to.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/jrsteele09/launcher-auth/intercept"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
)

// LaunchFunc opens target in a web browser.
type LaunchFunc func(target string) error

// Browser implements intercept.Browser on a terminal. Lines read from its input are
// delivered as navigations to the most recently opened surface.
type Browser struct {
	launch LaunchFunc
	info   *pterm.PrefixPrinter
	warn   *pterm.PrefixPrinter

	readOnce sync.Once
	in       io.Reader
	lines    chan string

	mu       sync.Mutex
	surfaces map[string]*surface
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithLauncher replaces the system browser launcher.
func WithLauncher(launch LaunchFunc) BrowserOption {
	return func(b *Browser) {
		b.launch = launch
	}
}

// WithoutLauncher only prints surface URLs.
func WithoutLauncher() BrowserOption {
	return func(b *Browser) {
		b.launch = nil
	}
}

// NewBrowser reads pasted addresses from in and writes prompts to out.
func NewBrowser(in io.Reader, out io.Writer, options ...BrowserOption) *Browser {
	b := &Browser{
		launch:   OpenSystemBrowser,
		info:     pterm.Info.WithWriter(out),
		warn:     pterm.Warning.WithWriter(out),
		in:       in,
		lines:    make(chan string),
		surfaces: make(map[string]*surface),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Open implements intercept.Browser. A surface with the same label as an open one replaces it.
func (b *Browser) Open(ctx context.Context, startURL *url.URL, opts intercept.WindowOptions, onNavigate intercept.NavigationFunc) (intercept.Surface, error) {
	if startURL == nil {
		return nil, errors.New("[console Open] start url is required")
	}
	b.readOnce.Do(func() { go b.readLines() })

	s := &surface{label: opts.Label, done: make(chan struct{})}
	b.mu.Lock()
	if prior, ok := b.surfaces[opts.Label]; ok {
		prior.close()
	}
	b.surfaces[opts.Label] = s
	b.mu.Unlock()

	title := opts.Title
	if title == "" {
		title = opts.Label
	}
	b.info.Printfln("%s: open this address in your browser and log in:\n%s", pterm.Bold.Sprint(title), startURL.String())
	if b.launch != nil {
		if err := b.launch(startURL.String()); err != nil {
			log.Warn().Err(err).Str("surface", opts.Label).Msg("could not open the system browser")
		}
	}
	b.info.Println("Paste the address your browser ends up on, or an empty line to cancel.")

	go b.serve(ctx, s, onNavigate)
	return s, nil
}

// serve hands pasted lines to onNavigate until one is intercepted or the surface goes away.
func (b *Browser) serve(ctx context.Context, s *surface, onNavigate intercept.NavigationFunc) {
	defer b.forget(s)
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.close()
			return
		case line, ok := <-b.lines:
			if !ok {
				s.close()
				return
			}
			if line == "" {
				s.close()
				return
			}
			u, err := url.Parse(line)
			if err != nil || u.Scheme == "" {
				b.warn.Printfln("%q is not an address, try again.", line)
				continue
			}
			if !onNavigate(u) {
				return
			}
			b.warn.Println("That is not the address the login redirects to, try again.")
		}
	}
}

func (b *Browser) readLines() {
	defer close(b.lines)
	scanner := bufio.NewScanner(b.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		b.lines <- strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("stopped reading console input")
	}
}

func (b *Browser) forget(s *surface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surfaces[s.label] == s {
		delete(b.surfaces, s.label)
	}
}

type surface struct {
	label string
	done  chan struct{}
	once  sync.Once
}

func (s *surface) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *surface) Close() error {
	s.close()
	return nil
}

func (s *surface) Done() <-chan struct{} {
	return s.done
}

// OpenSystemBrowser starts the platform's URL handler on target.
func OpenSystemBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
