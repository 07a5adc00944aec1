package apiclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}

func TestWithTokenCopies(t *testing.T) {
	c := New("http://localhost:8080")
	withToken := c.WithToken("t0k")

	assert.Empty(t, c.token)
	assert.Equal(t, "t0k", withToken.token)
	assert.Same(t, c.httpClient, withToken.httpClient)
}

func TestDoUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t0k", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"status":"ok","timestamp":"2026-01-01T00:00:00Z","data":{"name":"x"}}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, New(srv.URL).WithToken("t0k").get("/x", &out))
	assert.Equal(t, "x", out.Name)
}

func TestDoEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"error","timestamp":"2026-01-01T00:00:00Z","error":"Record not found"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).get("/x", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Record not found", apiErr.Message)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsAuthError())
}

func TestDoPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "404 page not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := New(srv.URL).get("/api/records", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "404 page not found", apiErr.Message)
}

func TestDoEmptyErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL).get("/x", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Service Unavailable", apiErr.Message)
	assert.True(t, apiErr.IsUnavailable())
}

func TestDoUndecodableSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	err := New(srv.URL).get("/x", nil)
	require.Error(t, err)
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}

func TestDoConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url).get("/x", nil)
	assert.ErrorContains(t, err, "request failed")
}
