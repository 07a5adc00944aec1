// Package gateway assembles the Telebox components from configuration and
// runs them until shutdown.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/api"
	"github.com/marmos91/telebox/pkg/api/auth"
	"github.com/marmos91/telebox/pkg/config"
	"github.com/marmos91/telebox/pkg/metrics"
	"github.com/marmos91/telebox/pkg/moderation"
	"github.com/marmos91/telebox/pkg/record"
	"github.com/marmos91/telebox/pkg/retrieval"
	"github.com/marmos91/telebox/pkg/telegram"
	"github.com/marmos91/telebox/pkg/upload"
)

// Options overrides collaborators for tests. Every field is optional.
type Options struct {
	// HTTPClient is used for Bot API calls, byte fetches and moderation.
	HTTPClient *http.Client

	// Store replaces the store selected by cfg.Store.Type.
	Store record.Store
}

// Gateway owns the running components.
type Gateway struct {
	cfg       *config.Config
	store     record.Store
	telegram  *telegram.Client
	resolver  *retrieval.Resolver
	apiServer *api.Server

	metricsServer *metrics.Server

	serveOnce sync.Once
	closeOnce sync.Once
}

// New builds a gateway from cfg. Metrics must be enabled here, before the
// pipeline and resolver are created, so they pick up collectors.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		g.metricsServer = metrics.NewServer(cfg.Metrics.Port)
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = config.CreateStore(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to open record store: %w", err)
		}
	}
	g.store = store

	apiClient := opts.HTTPClient
	if apiClient == nil {
		apiClient = &http.Client{Timeout: cfg.Telegram.Timeout}
	}
	g.telegram = telegram.NewClient(cfg.Telegram, apiClient)

	var paths telegram.PathResolver
	if g.telegram.HasToken() {
		paths = g.telegram
		if cfg.PathCache.Enabled {
			paths = telegram.NewPathCache(g.telegram, cfg.PathCache.Size, cfg.PathCache.TTL, metrics.NewPathCacheMetrics())
		}
	} else {
		logger.Warn("No bot token configured: uploads fail and retrievals use the legacy host")
	}

	var moderator moderation.Moderator
	if cfg.Moderation.APIKey != "" {
		moderator = moderation.NewClient(cfg.Moderation, opts.HTTPClient)
	}

	pipeline := upload.NewPipeline(g.telegram, store, upload.Options{
		Metrics: metrics.NewUploadMetrics(),
	})

	// Byte fetches stream for as long as the client reads, so only the
	// server write timeout bounds them.
	fetchClient := opts.HTTPClient
	if fetchClient == nil {
		fetchClient = &http.Client{}
	}
	g.resolver = retrieval.New(retrieval.Settings{
		PublicURL:         cfg.Server.PublicURL,
		WhitelistMode:     cfg.Policy.WhitelistMode,
		BlockImageURL:     cfg.Policy.BlockImageURL,
		LegacyBaseURL:     cfg.Telegram.LegacyBaseURL,
		ModerationTimeout: cfg.Moderation.Timeout,
	}, retrieval.Options{
		Paths:      paths,
		FileURL:    g.telegram.FileURL,
		Store:      store,
		StoreType:  cfg.Store.Type,
		Moderator:  moderator,
		HTTPClient: fetchClient,
		Metrics:    metrics.NewRetrievalMetrics(),
	})

	deps := api.Deps{
		Uploader:      pipeline,
		Retriever:     g.resolver,
		Store:         store,
		StoreType:     cfg.Store.Type,
		Ready:         g.Ready,
		MaxUploadSize: cfg.Upload.MaxSize.Int64(),
	}
	if cfg.Admin.Enabled() {
		jwtService, err := auth.NewJWTService(auth.JWTConfig{
			Secret:   cfg.Admin.JWTSecret,
			TokenTTL: cfg.Admin.TokenTTL,
		})
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("failed to create JWT service: %w", err)
		}
		deps.JWT = jwtService
		deps.Credentials = auth.Credentials{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
		}
	}
	g.apiServer = api.NewServer(cfg.Server, deps)

	logger.Info("Gateway configured",
		logger.StoreType(cfg.Store.Type),
		"moderation", moderator != nil,
		"path_cache", cfg.PathCache.Enabled,
		"whitelist_mode", cfg.Policy.WhitelistMode,
		"admin_api", deps.JWT != nil)
	return g, nil
}

// Ready reports whether uploads can reach the Bot API.
func (g *Gateway) Ready() bool {
	return g.telegram.HasToken() && g.cfg.Telegram.ChatID != ""
}

// Handler returns the HTTP handler of the gateway.
func (g *Gateway) Handler() http.Handler {
	return g.apiServer.Handler()
}

// Store returns the record store, or nil when records are disabled.
func (g *Gateway) Store() record.Store {
	return g.store
}

// Apply takes the settings that can change without a restart from a
// reloaded configuration.
func (g *Gateway) Apply(cfg *config.Config) {
	if cfg.Policy.WhitelistMode != g.resolver.WhitelistMode() {
		logger.Info("Whitelist mode changed", "enabled", cfg.Policy.WhitelistMode)
		g.resolver.SetWhitelistMode(cfg.Policy.WhitelistMode)
	}
	if cfg.Logging.Level != g.cfg.Logging.Level {
		logger.Info("Log level changed", "level", cfg.Logging.Level)
		logger.SetLevel(cfg.Logging.Level)
	}
	g.cfg.Logging.Level = cfg.Logging.Level
	g.cfg.Policy.WhitelistMode = cfg.Policy.WhitelistMode
}

// Serve runs the HTTP servers until ctx is cancelled or one of them fails,
// then shuts everything down and closes the store. It may only be called
// once.
func (g *Gateway) Serve(ctx context.Context) error {
	err := errors.New("gateway already served")
	g.serveOnce.Do(func() {
		err = g.serve(ctx)
	})
	return err
}

func (g *Gateway) serve(ctx context.Context) error {
	defer g.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A nil channel never fires, leaving only the API server to wait on.
	var metricsDone chan error
	if g.metricsServer != nil {
		metricsDone = make(chan error, 1)
		go func() {
			metricsDone <- g.metricsServer.Start(ctx)
		}()
	}

	apiDone := make(chan error, 1)
	go func() {
		apiDone <- g.apiServer.Start(ctx, g.cfg.ShutdownTimeout)
	}()

	var serveErr error
	select {
	case serveErr = <-apiDone:
		cancel()
		if metricsDone != nil {
			<-metricsDone
		}
	case err := <-metricsDone:
		if err != nil {
			logger.Error("Metrics server failed - initiating shutdown", logger.Err(err))
			serveErr = err
		}
		cancel()
		if err := <-apiDone; err != nil && serveErr == nil {
			serveErr = err
		}
	}
	return serveErr
}

// Close releases the record store. Safe to call more than once.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		if g.store == nil {
			return
		}
		if err := g.store.Close(); err != nil {
			logger.Warn("Error closing record store", logger.Err(err))
		}
	})
}
