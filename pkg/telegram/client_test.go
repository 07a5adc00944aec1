package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123:secret"

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BotToken: testToken, ChatID: "-10042", APIBaseURL: srv.URL}, srv.Client()), srv
}

func TestSendMultipartForm(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot"+testToken+"/sendVideo", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "-10042", r.FormValue("chat_id"))

		f, hdr, err := r.FormFile("video")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "clip.mp4", hdr.Filename)
		assert.Equal(t, []byte("frames"), data)

		_, _ = io.WriteString(w, `{"ok":true,"result":{"video":{"file_id":"BAAD"}}}`)
	})

	res, err := client.Send(context.Background(), SendVideo, "clip.mp4", []byte("frames"))
	require.NoError(t, err)
	assert.True(t, res.OK())

	id, err := ExtractFileID(res.Response)
	require.NoError(t, err)
	assert.Equal(t, "BAAD", id)
}

func TestSendRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: IMAGE_PROCESS_FAILED"}`)
	})

	res, err := client.Send(context.Background(), SendPhoto, "a.webp", []byte("x"))
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Bad Request: IMAGE_PROCESS_FAILED", res.Description())
}

func TestSendUndecodableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})

	res, err := client.Send(context.Background(), SendDocument, "a.bin", []byte("x"))
	require.NoError(t, err)
	assert.Nil(t, res.Response)
	assert.Empty(t, res.Description())
}

func TestSendTransportErrorRedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(Config{BotToken: testToken, APIBaseURL: srv.URL}, nil)
	_, err := client.Send(context.Background(), SendDocument, "a.bin", []byte("x"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestGetFilePath(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+testToken+"/getFile", r.URL.Path)
		switch r.URL.Query().Get("file_id") {
		case "AgAD":
			_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"AgAD","file_path":"photos/file_1.jpg"}}`)
		case "gone":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"ok":false,"description":"Bad Request: invalid file_id"}`)
		case "notok":
			_, _ = io.WriteString(w, `{"ok":false,"description":"nope"}`)
		default:
			_, _ = io.WriteString(w, `garbage`)
		}
	})
	ctx := context.Background()

	path, err := client.GetFilePath(ctx, "AgAD")
	require.NoError(t, err)
	assert.Equal(t, "photos/file_1.jpg", path)

	_, err = client.GetFilePath(ctx, "gone")
	assert.ErrorContains(t, err, "status: 400")

	_, err = client.GetFilePath(ctx, "notok")
	assert.ErrorContains(t, err, "nope")

	_, err = client.GetFilePath(ctx, "junk")
	assert.Error(t, err)
}

func TestFileURL(t *testing.T) {
	client := NewClient(Config{BotToken: testToken}, nil)
	assert.Equal(t, "https://api.telegram.org/file/bot123:secret/photos/file_1.jpg", client.FileURL("photos/file_1.jpg"))
	assert.True(t, client.HasToken())
	assert.False(t, NewClient(Config{}, nil).HasToken())
}

type countingResolver struct {
	calls atomic.Int32
	paths map[string]string
	err   error
}

func (r *countingResolver) GetFilePath(_ context.Context, id string) (string, error) {
	r.calls.Add(1)
	if r.err != nil {
		return "", r.err
	}
	return r.paths[id], nil
}

type lookupRecorder struct{ hits, misses int }

func (l *lookupRecorder) RecordLookup(hit bool) {
	if hit {
		l.hits++
	} else {
		l.misses++
	}
}

func TestPathCache(t *testing.T) {
	next := &countingResolver{paths: map[string]string{"a": "docs/a.pdf"}}
	rec := &lookupRecorder{}
	cache := NewPathCache(next, 16, time.Minute, rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		path, err := cache.GetFilePath(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "docs/a.pdf", path)
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 1, rec.misses)

	// Empty paths are not cached.
	for i := 0; i < 2; i++ {
		path, err := cache.GetFilePath(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, path)
	}
	assert.Equal(t, int32(3), next.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestPathCacheDoesNotCacheErrors(t *testing.T) {
	next := &countingResolver{err: errors.New("down")}
	cache := NewPathCache(next, 16, time.Minute, nil)

	_, err := cache.GetFilePath(context.Background(), "a")
	assert.Error(t, err)
	_, err = cache.GetFilePath(context.Background(), "a")
	assert.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestPathCacheExpires(t *testing.T) {
	next := &countingResolver{paths: map[string]string{"a": "p"}}
	cache := NewPathCache(next, 16, 20*time.Millisecond, nil)

	_, _ = cache.GetFilePath(context.Background(), "a")
	time.Sleep(60 * time.Millisecond)
	_, _ = cache.GetFilePath(context.Background(), "a")

	assert.Equal(t, int32(2), next.calls.Load())
}
