package common

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_DefaultHeaders(t *testing.T) {
	var gotUA, gotCustom, gotOverride string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Scout")
		gotOverride = r.Header.Get("Accept")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithUserAgent("scout-test/1.0").
		WithCustomHeaders(map[string]string{"X-Scout": "yes", "Accept": "*/*"}).
		WithTimeout(5 * time.Second).
		Build()
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "scout-test/1.0", gotUA)
	assert.Equal(t, "yes", gotCustom)
	assert.Equal(t, "text/html", gotOverride, "caller headers win over defaults")
}

func TestNewHTTPClient_HTTP2OverTLS(t *testing.T) {
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Proto))
	}))
	server.EnableHTTP2 = true
	server.StartTLS()
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithInsecureSkipVerify(true).
		WithHTTP2(true).
		Build()
	require.NoError(t, err)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewHTTPClient_InvalidProxy(t *testing.T) {
	_, err := NewHTTPClientBuilder(zerolog.Nop()).WithProxy("://bad").Build()
	assert.Error(t, err)
}

func TestRedirectPolicy(t *testing.T) {
	policy := RedirectPolicy(2)

	ftpReq, _ := http.NewRequest(http.MethodGet, "ftp://example.com/file", nil)
	err := policy(ftpReq, nil)
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))

	okReq, _ := http.NewRequest(http.MethodGet, "https://example.com/next", nil)
	assert.NoError(t, policy(okReq, []*http.Request{okReq}))
	assert.Error(t, policy(okReq, []*http.Request{okReq, okReq}))
}

func TestNewHTTPClient_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewHTTPClient(DefaultHTTPClientConfig(), zerolog.Nop())
	require.NoError(t, err)

	resp, err := client.Get(server.URL + "/start")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/end", resp.Request.URL.Path)
}
