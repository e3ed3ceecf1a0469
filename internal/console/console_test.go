package console_test

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/launcher-auth/accounts"
	"github.com/jrsteele09/launcher-auth/auth"
	"github.com/jrsteele09/launcher-auth/intercept"
	"github.com/jrsteele09/launcher-auth/internal/console"
	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

const redirectURI = "https://secure.runescape.com/m=weblogin/launcher-redirect"

func target(t *testing.T) intercept.Target {
	t.Helper()
	start, err := url.Parse("https://account.jagex.com/oauth2/auth?client_id=launcher")
	require.NoError(t, err)
	return intercept.Target{
		StartURL:       start,
		RedirectPrefix: redirectURI,
		Source:         intercept.FromQuery,
		Required:       []string{"code", "state"},
		Window:         intercept.WindowOptions{Label: "auth", Title: "Login"},
	}
}

func TestBrowser_PastedRedirect(t *testing.T) {
	input := strings.Join([]string{
		"not a url",
		"https://account.jagex.com/login",
		redirectURI + "?code=ABC&state=S",
		"",
	}, "\n")
	var out bytes.Buffer
	var launched []string
	browser := console.NewBrowser(strings.NewReader(input), &out, console.WithLauncher(func(target string) error {
		launched = append(launched, target)
		return nil
	}))

	params, err := intercept.NewInterceptor(browser).Intercept(context.Background(), target(t))
	require.NoError(t, err)
	require.Equal(t, "ABC", params.Get("code"))
	require.Equal(t, "S", params.Get("state"))

	require.Equal(t, []string{"https://account.jagex.com/oauth2/auth?client_id=launcher"}, launched)
	require.Contains(t, out.String(), "https://account.jagex.com/oauth2/auth?client_id=launcher")
	require.Contains(t, out.String(), "is not an address")
	require.Contains(t, out.String(), "not the address the login redirects to")
}

func TestBrowser_Cancelled(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty line", "\n" + redirectURI + "?code=ABC&state=S\n"},
		{"end of input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := console.NewBrowser(strings.NewReader(tt.input), io.Discard, console.WithoutLauncher())

			_, err := intercept.NewInterceptor(browser).Intercept(context.Background(), target(t))
			require.ErrorIs(t, err, apperrors.ErrFlowCancelled)
		})
	}
}

func TestBrowser_SameLabelReplacesSurface(t *testing.T) {
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })
	browser := console.NewBrowser(in, io.Discard, console.WithoutLauncher())
	tgt := target(t)

	first, err := browser.Open(context.Background(), tgt.StartURL, tgt.Window, func(*url.URL) bool { return true })
	require.NoError(t, err)
	second, err := browser.Open(context.Background(), tgt.StartURL, tgt.Window, func(*url.URL) bool { return true })
	require.NoError(t, err)

	<-first.Done()
	select {
	case <-second.Done():
		t.Fatal("replacement surface closed")
	default:
	}
	require.NoError(t, second.Close())
	<-second.Done()
}

func TestBrowser_RequiresStartURL(t *testing.T) {
	browser := console.NewBrowser(strings.NewReader(""), io.Discard, console.WithoutLauncher())
	_, err := browser.Open(context.Background(), nil, intercept.WindowOptions{}, func(*url.URL) bool { return true })
	require.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNotifier(t *testing.T) {
	out := &syncBuffer{}
	n := console.NewNotifier(out)
	ctx := context.Background()

	require.NoError(t, n.Emit(ctx, auth.Event{Name: auth.EventLoginProgress, Payload: auth.ProgressAuthorizing}))
	require.NoError(t, n.Emit(ctx, auth.Event{Name: auth.EventAccountAdded, Payload: &accounts.Account{
		Email:       "Bob",
		AccountName: "BobDisplay",
		Characters:  []accounts.GameCharacter{{AccountID: "1001", DisplayName: "Bobby"}},
	}}))
	require.NoError(t, n.Emit(ctx, auth.Event{Name: auth.EventLoginComplete, Payload: ""}))

	printed := out.String()
	require.Contains(t, printed, "Authorizing...")
	require.Contains(t, printed, "BobDisplay")
	require.Contains(t, printed, "Bobby")
	require.Contains(t, printed, "Login complete")

	err := n.Emit(ctx, auth.Event{Name: auth.EventAccountAdded, Payload: "not an account"})
	require.Error(t, err)
}
