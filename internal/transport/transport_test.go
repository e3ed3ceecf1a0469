package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/launcher-auth/internal/errors"
	"github.com/jrsteele09/launcher-auth/internal/transport"
	"github.com/stretchr/testify/require"
)

type session struct {
	SessionID string `json:"sessionId"`
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestDoJSON(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer S1", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"S1"}`))
	})

	req, err := transport.NewJSONRequest(context.Background(), http.MethodPost, srv.URL+"/sessions", map[string]string{"idToken": "XYZ"}, "S1")
	require.NoError(t, err)

	var out session
	require.NoError(t, transport.DoJSON(transport.NewClient(time.Second), req, &out))
	require.Equal(t, "S1", out.SessionID)
}

func TestDoJSON_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    error
	}{
		{
			name: "provider error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
			},
			kind: apperrors.ErrProvider,
		},
		{
			name: "redirect is not followed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/elsewhere", http.StatusFound)
			},
			kind: apperrors.ErrProvider,
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			kind: apperrors.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.handler)
			req, err := transport.NewJSONRequest(context.Background(), http.MethodGet, srv.URL+"/accounts", nil, "")
			require.NoError(t, err)

			var out session
			err = transport.DoJSON(transport.WithoutRedirects(transport.NewClient(time.Second)), req, &out)
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestDoJSON_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	req, err := transport.NewJSONRequest(context.Background(), http.MethodGet, srv.URL, nil, "")
	require.NoError(t, err)

	err = transport.DoJSON(transport.NewClient(time.Second), req, &session{})
	require.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestNewJSONRequest_BadURL(t *testing.T) {
	_, err := transport.NewJSONRequest(context.Background(), http.MethodGet, "://nope", nil, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestWithoutRedirects(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	base := transport.NewClient(time.Second)
	resp, err := base.Get(srv.URL + "/start")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = transport.WithoutRedirects(base).Get(srv.URL + "/start")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	// the original client is untouched
	require.Nil(t, base.CheckRedirect)
	require.NotNil(t, transport.WithoutRedirects(nil))
}
