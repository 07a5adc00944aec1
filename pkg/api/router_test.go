package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/telebox/pkg/api/auth"
	"github.com/marmos91/telebox/pkg/record"
	"github.com/marmos91/telebox/pkg/record/store/memory"
	"github.com/marmos91/telebox/pkg/upload"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubUploader struct{}

func (stubUploader) Upload(context.Context, *upload.File) (*upload.Result, error) {
	return &upload.Result{Handle: "id.png", Src: "/file/id.png"}, nil
}

type stubRetriever struct {
	handles []string
	methods []string
}

func (s *stubRetriever) Serve(w http.ResponseWriter, r *http.Request, handle string) {
	s.handles = append(s.handles, handle)
	s.methods = append(s.methods, r.Method)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("bytes"))
}

func newTestRouter(t *testing.T, withAdmin bool) (http.Handler, *stubRetriever, record.Store) {
	t.Helper()
	store := memory.New()
	retriever := &stubRetriever{}
	deps := Deps{
		Uploader:  stubUploader{},
		Retriever: retriever,
		Store:     store,
		StoreType: "memory",
		Ready:     func() bool { return true },
	}
	if withAdmin {
		hash, err := auth.HashPassword("correct horse battery")
		require.NoError(t, err)
		jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: testSecret})
		require.NoError(t, err)
		deps.JWT = jwtService
		deps.Credentials = auth.Credentials{Username: "admin", PasswordHash: hash}
	}
	return NewRouter(deps), retriever, store
}

func login(t *testing.T, router http.Handler, password string) (int, string) {
	t.Helper()
	body := `{"username":"admin","password":"` + password + `"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body)))

	var resp struct {
		Data auth.Token `json:"data"`
	}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	return w.Code, resp.Data.AccessToken
}

func TestRouterFileRouteAcceptsAllMethods(t *testing.T) {
	router, retriever, _ := newTestRouter(t, false)

	for _, method := range []string{"GET", "HEAD", "POST", "OPTIONS"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/file/AgAD.tar.gz", nil))
		assert.Equal(t, http.StatusOK, w.Code, method)
	}
	assert.Equal(t, []string{"AgAD.tar.gz", "AgAD.tar.gz", "AgAD.tar.gz", "AgAD.tar.gz"}, retriever.handles)
	assert.Equal(t, []string{"GET", "HEAD", "POST", "OPTIONS"}, retriever.methods)
}

func TestRouterUploadRequiresPost(t *testing.T) {
	router, _, _ := newTestRouter(t, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/upload", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouterHealth(t *testing.T) {
	router, _, _ := newTestRouter(t, false)

	for _, path := range []string{"/health", "/health/ready", "/health/stores"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterAdminAPIDisabledWithoutJWT(t *testing.T) {
	router, _, _ := newTestRouter(t, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/records", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterRecordsRequireToken(t *testing.T) {
	router, _, _ := newTestRouter(t, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/records", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("GET", "/api/records", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterLoginRejectsWrongPassword(t *testing.T) {
	router, _, _ := newTestRouter(t, true)

	code, token := login(t, router, "wrong password")

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Empty(t, token)
}

func TestRouterAdminFlow(t *testing.T) {
	router, _, store := newTestRouter(t, true)

	code, token := login(t, router, "correct horse battery")
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, token)

	req := httptest.NewRequest("PATCH", "/api/records/AgAD.png", strings.NewReader(`{"list_type":"Block"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rec, err := store.Get(context.Background(), "AgAD.png")
	require.NoError(t, err)
	assert.Equal(t, record.ListBlock, rec.ListType)

	req = httptest.NewRequest("GET", "/api/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"handle":"AgAD.png"`)
}

func TestServerStartStop(t *testing.T) {
	srv := NewServer(APIConfig{}, Deps{Uploader: stubUploader{}, Retriever: &stubRetriever{}})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.NoError(t, srv.Stop(context.Background()))
}
