package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/api/auth"
	"github.com/marmos91/telebox/pkg/api/handlers"
	apimw "github.com/marmos91/telebox/pkg/api/middleware"
	"github.com/marmos91/telebox/pkg/record"
)

// Deps are the collaborators the router serves.
type Deps struct {
	Uploader  handlers.Uploader
	Retriever handlers.Retriever

	// Store backs health and the records API. Nil when records are disabled.
	Store     record.Store
	StoreType string

	// Ready reports whether uploads can reach the Bot API.
	Ready func() bool

	// JWT enables the admin API when non-nil.
	JWT         *auth.JWTService
	Credentials auth.Credentials

	// MaxUploadSize caps the upload body in bytes. Zero disables the cap.
	MaxUploadSize int64

	// RequestTimeout bounds the health and admin routes. Default: 30s
	RequestTimeout time.Duration
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - POST /upload - Store a file upstream
//   - * /file/{id} - Retrieve a file (all methods)
//   - GET /health, /health/ready, /health/stores - Probes
//   - POST /api/auth/login - Admin login
//   - GET /api/records, GET|PATCH /api/records/{handle} - Admin records API
//
// Uploads and file streaming are not subject to the request timeout.
func NewRouter(deps Deps) http.Handler {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	uploadHandler := handlers.NewUploadHandler(deps.Uploader, deps.MaxUploadSize)
	fileHandler := handlers.NewFileHandler(deps.Retriever)

	r.Post("/upload", uploadHandler.Upload)
	r.HandleFunc("/file/{id}", fileHandler.Serve)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(deps.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(deps.Store, deps.StoreType, deps.Ready)
		r.Route("/health", func(r chi.Router) {
			r.Get("/", healthHandler.Liveness)
			r.Get("/ready", healthHandler.Readiness)
			r.Get("/stores", healthHandler.Stores)
		})

		if deps.JWT == nil {
			return
		}

		authHandler := handlers.NewAuthHandler(deps.Credentials, deps.JWT)
		recordsHandler := handlers.NewRecordsHandler(deps.Store)

		r.Route("/api", func(r chi.Router) {
			r.Post("/auth/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(apimw.JWTAuth(deps.JWT))
				r.Use(apimw.RequireAdmin())

				r.Get("/records", recordsHandler.List)
				r.Get("/records/{handle}", recordsHandler.Get)
				r.Patch("/records/{handle}", recordsHandler.Update)
			})
		})
	})

	return r
}

// requestLogger attaches a LogContext to the request and logs its
// completion using the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		lc := logger.NewLogContext(requestID, r.RemoteAddr)
		ctx := logger.WithContext(r.Context(), lc)

		logger.DebugCtx(ctx, "Request started", "method", r.Method, "path", r.URL.Path)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoCtx(ctx, "Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			logger.Status(ww.Status()),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(start),
		)
	})
}
