/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Seednode/watchparty/party"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct{ id party.ConnID }

func (s stubConn) ID() party.ConnID { return s.id }
func (s stubConn) Send(any) error   { return nil }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	mux := ts.srv.mux

	tests := []struct {
		path        string
		status      int
		contentType string
		body        string
	}{
		{"/healthz", http.StatusOK, "text/plain; charset=utf-8", "Ok\n"},
		{"/version", http.StatusOK, "text/plain; charset=utf-8", "watchparty v" + releaseVersion + "\n"},
		{"/stats", http.StatusOK, "application/json", `{"sessions":0,"participants":0,"connections":0}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, mux, tt.path)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, tt.body, w.Body.String())
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}

	t.Run("home", func(t *testing.T) {
		w := get(t, mux, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "watchparty v"+releaseVersion)
		assert.Contains(t, w.Body.String(), "0 live parties")
	})

	t.Run("robots", func(t *testing.T) {
		w := get(t, mux, "/robots.txt")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Disallow: /party/")
	})

	t.Run("metrics", func(t *testing.T) {
		w := get(t, mux, "/metrics")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "watchparty_sessions 0")
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("pprof off by default", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, mux, "/pprof/heap").Code)
	})
}

func TestRoutesOptional(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.metrics = false
		cfg.profile = true
		cfg.prefix = "/watch/"
	})
	mux := ts.srv.mux

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/watch/metrics").Code)
	assert.Equal(t, http.StatusOK, get(t, mux, "/watch/healthz").Code)
	assert.Equal(t, http.StatusNotFound, get(t, mux, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, mux, "/watch/pprof/goroutine").Code)
}

func TestServeQR(t *testing.T) {
	ts := newTestServer(t, nil)
	manager := ts.srv.manager

	manager.Connect(stubConn{id: "host"})
	room, err := manager.Host("host", party.HostRequest{HostName: "A", MovieName: "M", VideoLink: "l"})
	require.NoError(t, err)

	w := get(t, ts.srv.mux, "/party/"+room+"/qr")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusNotFound, get(t, ts.srv.mux, "/party/room-nope/qr").Code)

	// the invite dies with the party
	manager.Disconnect("host")
	assert.Equal(t, http.StatusNotFound, get(t, ts.srv.mux, "/party/"+room+"/qr").Code)
}

func TestPanicHandler(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.srv.mux.GET("/boom", func(http.ResponseWriter, *http.Request, httprouter.Params) {
		panic("boom")
	})

	w := get(t, ts.srv.mux, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "An error has occurred.")
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "10.0.0.1:5555", nil, "10.0.0.1:5555"},
		{"ipv6", "[::1]:5555", nil, "[::1]:5555"},
		{"x-real-ip", "10.0.0.1:5555", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7:5555"},
		{"cloudflare wins", "10.0.0.1:5555", map[string]string{"CF-Connecting-IP": "198.51.100.2", "X-Real-IP": "203.0.113.7"}, "198.51.100.2:5555"},
		{"garbage header", "10.0.0.1:5555", map[string]string{"X-Real-IP": "not-an-ip"}, "10.0.0.1:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, realIP(r))
		})
	}
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.0 kB", humanReadableSize(1000))
	assert.Equal(t, "1.5 MB", humanReadableSize(1_500_000))
}

func TestNewPageEscapesTitle(t *testing.T) {
	page := newPage("<script>", "body")
	assert.Contains(t, page, "<title>&lt;script&gt;</title>")
	assert.Contains(t, page, "<main>body</main>")
}
