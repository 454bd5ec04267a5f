package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/docbridge/internal/api/http"
	"github.com/GriffinCanCode/docbridge/internal/api/middleware"
	"github.com/GriffinCanCode/docbridge/internal/api/ws"
	"github.com/GriffinCanCode/docbridge/internal/domain/bridge"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/service"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/docbridge/internal/providers/documents"
	"github.com/GriffinCanCode/docbridge/internal/providers/localtree"
	"github.com/GriffinCanCode/docbridge/internal/providers/media"
	"github.com/GriffinCanCode/docbridge/internal/providers/mediaindex"
	"github.com/GriffinCanCode/docbridge/internal/providers/system"
)

// provisional media entries younger than this survive startup when the catalog is shared
const sharedCatalogGrace = time.Hour

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	bridge   *bridge.Bridge
	hub      *ws.Hub
	registry *service.Registry
	catalog  mediaindex.Catalog
	index    *mediaindex.Index
}

// Storage overrides the filesystems behind the bridge, mainly for tests.
// Nil fields fall back to the configured host directories.
type Storage struct {
	Volumes map[string]afero.Fs
	Media   afero.Fs
	Catalog mediaindex.Catalog
}

// NewServer creates a new server instance from configuration
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	return NewServerWithStorage(ctx, cfg, logger, Storage{})
}

// NewServerWithStorage creates a server on the given storage
func NewServerWithStorage(ctx context.Context, cfg *config.Config, logger *logging.Logger, st Storage) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Info("Initializing docbridge server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("volumes", len(cfg.Storage.Volumes)),
		zap.String("media_root", cfg.Media.Root),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("docbridge", logger.Logger)

	grants, err := localtree.NewGrants(cfg.Storage.GrantsFile, logger.Component("grants"))
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}

	volumes := st.Volumes
	if volumes == nil {
		for name, dir := range cfg.Storage.Volumes {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create volume %s: %w", name, err)
			}
		}
		volumes = localtree.OSVolumes(cfg.Storage.Volumes)
	}
	tree := localtree.New(volumes,
		localtree.WithAuthority(cfg.Storage.Authority),
		localtree.WithGrants(grants),
		localtree.WithLogger(logger.Component("localtree")),
	)

	catalog := st.Catalog
	if catalog == nil {
		catalog, err = openCatalog(ctx, cfg.Media)
		if err != nil {
			return nil, err
		}
	}

	mediaFs := st.Media
	if mediaFs == nil {
		if err := os.MkdirAll(cfg.Media.Root, 0o755); err != nil {
			catalog.Close()
			return nil, fmt.Errorf("failed to create media root: %w", err)
		}
		mediaFs = afero.NewBasePathFs(afero.NewOsFs(), cfg.Media.Root)
	}
	index := mediaindex.New(mediaFs, catalog, mediaindex.WithLogger(logger.Component("mediaindex")))

	// provisional entries left by an earlier process never finalize; a shared catalog may
	// hold live ones from other instances, so only older entries are dropped there
	cutoff := time.Now()
	if cfg.Media.DatabaseURL != "" && st.Catalog == nil {
		cutoff = cutoff.Add(-sharedCatalogGrace)
	}
	if n, err := index.Reclaim(ctx, cutoff); err != nil {
		logger.Warn("Reclaiming provisional media entries failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("Reclaimed provisional media entries", zap.Int("removed", n))
	}

	// scanning needs the host directory
	if cfg.Media.ScanOnStart && st.Media == nil {
		added, err := index.Scan(ctx, cfg.Media.Root)
		if err != nil {
			logger.Warn("Media scan failed", zap.Error(err))
		} else {
			logger.Info("Media scan finished", zap.Int("added", added))
		}
	}

	hub := ws.NewHub(logger.Logger, metrics, originChecker(cfg.CORS.AllowedOrigins))
	settings := resilience.LauncherSettings(logger.Component("resilience"))
	failures := cfg.Picker.BreakerFailures
	settings.ReadyToTrip = func(counts resilience.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}
	settings.Timeout = cfg.Picker.BreakerTimeout.Std()
	launcher := resilience.GuardLauncher(hub, "picker-host", settings)

	b, err := bridge.New(bridge.Config{
		Workers:      cfg.Workers.Count,
		QueueSize:    cfg.Workers.QueueSize,
		DeliveryBuf:  cfg.Workers.DeliveryBuffer,
		MaxReadBytes: cfg.Workers.MaxReadBytes,
	}, bridge.Dependencies{
		Documents: document.NewRouter(tree, index),
		Index:     index,
		Launcher:  launcher,
		Grants:    grants,
		Logger:    logger.Component("bridge"),
		Metrics:   metrics,
	})
	if err != nil {
		catalog.Close()
		return nil, err
	}
	hub.Bind(b)

	registry := service.NewRegistry()
	registerProviders(registry, logger, []service.Provider{
		documents.New(b,
			documents.WithTracer(tracer),
			documents.WithMetrics(metrics),
			documents.WithLogger(logger.Logger),
		),
		media.New(index, cfg.Media.Root),
		system.New(cfg.Storage.Authority, volumeNames(cfg.Storage.Volumes), system.Gauges{
			Pending: b.Outstanding,
			Hosts:   hub.Connected,
		}, logger.Component("apps")),
	})

	if logger.Level() > zap.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(apihttp.Dependencies{
		Registry:       registry,
		Results:        b,
		Status:         b,
		Hosts:          hub,
		Metrics:        metrics,
		Logger:         logger.Logger,
		ExecuteTimeout: cfg.Picker.ExecuteTimeout.Std(),
	})

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/services", handlers.ListServices)
	router.POST("/services/discover", handlers.DiscoverServices)
	router.POST("/services/execute", handlers.ExecuteService)

	router.GET("/picker", hub.HandleConnection)
	router.POST("/picker/result", handlers.PickerResult)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/metrics/json", handlers.MetricsJSON)

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		bridge:   b,
		hub:      hub,
		registry: registry,
		catalog:  catalog,
		index:    index,
	}, nil
}

func openCatalog(ctx context.Context, cfg config.MediaConfig) (mediaindex.Catalog, error) {
	if cfg.DatabaseURL != "" {
		c, err := mediaindex.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open media catalog database: %w", err)
		}
		return c, nil
	}
	c, err := mediaindex.NewMemoryCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load media catalog: %w", err)
	}
	return c, nil
}

func volumeNames(volumes map[string]string) []string {
	names := make([]string, 0, len(volumes))
	for name := range volumes {
		names = append(names, name)
	}
	return names
}

func registerProviders(registry *service.Registry, logger *logging.Logger, providers []service.Provider) {
	for _, p := range providers {
		def := p.Definition()
		if err := registry.Register(p); err != nil {
			logger.Warn("Failed to register provider", zap.String("service", def.ID), zap.Error(err))
			continue
		}
		logger.Info("Registered provider", zap.String("service", def.ID), zap.Int("tools", len(def.Tools)))
	}
}

// originChecker admits same-origin and configured origins for the picker socket
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Handler returns the root handler. Responses are gzip compressed except WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	gz := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			s.router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Bridge exposes the document bridge
func (s *Server) Bridge() *bridge.Bridge {
	return s.bridge
}

// Run serves until ctx ends, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.Server.ReadTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if d := s.config.Server.ShutdownTimeout.Std(); d > 0 {
		return d
	}
	return 10 * time.Second
}

// Close stops the bridge and releases storage
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.bridge.Close()
	s.tracer.Close()

	var err error
	if cerr := s.catalog.Close(); cerr != nil {
		s.logger.Error("Failed to close media catalog", zap.Error(cerr))
		err = fmt.Errorf("failed to close media catalog: %w", cerr)
	}

	_ = s.logger.Sync()
	return err
}
