package moderation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRate(t *testing.T) {
	fileURL := "https://api.telegram.org/file/bot1:tok/photos/file_1.jpg?x=1&y=2"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderate/", r.URL.Path)
		assert.Equal(t, "k3y", r.URL.Query().Get("key"))
		assert.Equal(t, fileURL, r.URL.Query().Get("url"))
		_, _ = io.WriteString(w, `{"rating_index":3,"rating_letter":"a","rating_label":"adult","error_code":0}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k3y", BaseURL: srv.URL}, srv.Client())
	label, err := c.Rate(context.Background(), fileURL)
	require.NoError(t, err)
	assert.Equal(t, "adult", label)
}

func TestClientRateErrors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil).Rate(context.Background(), "u")
		assert.ErrorContains(t, err, "503")
	})

	t.Run("malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{not json`)
		}))
		defer srv.Close()

		_, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil).Rate(context.Background(), "u")
		assert.Error(t, err)
	})

	t.Run("network hides key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, err := NewClient(Config{APIKey: "supersecret", BaseURL: srv.URL}, nil).Rate(context.Background(), "u")
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "supersecret")
	})
}

type moderatorFunc func(ctx context.Context, url string) (string, error)

func (f moderatorFunc) Rate(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func TestCheck(t *testing.T) {
	ctx := context.Background()

	out := Check(ctx, moderatorFunc(func(context.Context, string) (string, error) { return "teen", nil }), time.Second, "u")
	assert.Equal(t, Outcome{Labeled: true, Label: "teen"}, out)

	out = Check(ctx, moderatorFunc(func(context.Context, string) (string, error) { return "", nil }), time.Second, "u")
	assert.False(t, out.Labeled)
	assert.NoError(t, out.Err)

	boom := errors.New("boom")
	out = Check(ctx, moderatorFunc(func(context.Context, string) (string, error) { return "adult", boom }), time.Second, "u")
	assert.False(t, out.Labeled)
	assert.Empty(t, out.Label)
	assert.ErrorIs(t, out.Err, boom)
}

func TestCheckTimeout(t *testing.T) {
	slow := moderatorFunc(func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "adult", nil
		}
	})

	start := time.Now()
	out := Check(context.Background(), slow, 50*time.Millisecond, "u")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, out.Labeled)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}

func TestCheckTimeoutAgainstServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	out := Check(context.Background(), NewClient(Config{APIKey: "k", BaseURL: srv.URL}, srv.Client()), 50*time.Millisecond, "u")
	assert.False(t, out.Labeled)
	assert.Error(t, out.Err)
}
