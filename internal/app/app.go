package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"contractpulse/internal/config"
	apierrors "contractpulse/internal/errors"
	"contractpulse/internal/importer"
	"contractpulse/internal/infrastructure"
	customMiddleware "contractpulse/internal/middleware"
	"contractpulse/internal/services"
	handlers "contractpulse/internal/transport/http"
	ws "contractpulse/internal/websocket"
	"contractpulse/pkg/contracts"
)

// AppName is reported in logs and telemetry
const AppName = "ContractPulse"

// receiptBodyLimit bounds JSON bodies on the receipts endpoint
const receiptBodyLimit = 1 << 20

// Options carries optional collaborators of the application
type Options struct {
	// FrontendFS is served at / with index.html as the SPA fallback
	FrontendFS fs.FS
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	WebSocketHub  *ws.Hub
	Workspace     *services.WorkspaceService
	HealthService *services.HealthService
	OTelProviders *infrastructure.OTelProviders
	FrontendFS    fs.FS

	errorHandler *apierrors.ErrorHandler
	stopOnce     sync.Once
	stopErr      error
}

// NewApplication wires every component from cfg. The hub is started; the
// HTTP server is not.
func NewApplication(cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(otelConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		FrontendFS:    opts.FrontendFS,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func otelConfig(cfg *config.Config) *infrastructure.OTelConfig {
	oc := infrastructure.DefaultOTelConfig()
	oc.ServiceName = cfg.Telemetry.ServiceName
	oc.ServiceVersion = contracts.Version
	oc.EnableMetrics = cfg.Telemetry.EnableMetrics
	if cfg.Telemetry.TraceStdout {
		oc.TraceExporter = "stdout"
	}
	return oc
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	expander := importer.DefaultExpander()
	if file := a.Config.Locations.AbbreviationsFile; file != "" {
		loaded, err := importer.LoadExpander(file)
		if err != nil {
			return fmt.Errorf("failed to load location abbreviations: %w", err)
		}
		expander = loaded
	}

	imp := importer.New(importer.Options{
		HeaderWindow: a.Config.Import.HeaderWindow,
		Expander:     expander,
		Logger:       a.Logger,
	})

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger, wsMetrics)
	hub.Start()
	a.WebSocketHub = hub

	a.Workspace = services.NewWorkspaceService(services.WorkspaceDeps{
		Importer:    imp,
		Broadcaster: hub,
		Metrics:     a.OTelProviders.Metrics,
		Logger:      a.Logger,
	})

	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, a.Workspace, hub, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Must be set before anything is mounted so subrouters inherit them
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// Only middleware that leaves the ResponseWriter hijackable runs in
	// front of the websocket route
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, ws.HandlerConfig{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
	}, a.Logger, a.errorHandler))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		a.setupAPIRoutes(r)

		if a.FrontendFS != nil {
			r.Get("/*", a.serveSPAHandler(a.FrontendFS))
		}
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", handlers.NewHealthHandler(a.HealthService, a.Logger).Routes())

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(a.Config.Import.MaxUploadBytes))
			r.Mount("/imports", handlers.NewImportHandler(a.Workspace, a.Logger, a.errorHandler).Routes())
		})

		r.Mount("/zones", handlers.NewZonesHandler(a.Workspace, a.Logger, a.errorHandler).Routes())
		r.Mount("/analytics", handlers.NewAnalyticsHandler(a.Workspace, a.Config.DefaultMode(), a.Logger, a.errorHandler).Routes())

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(receiptBodyLimit))
			r.Mount("/receipts", handlers.NewReceiptsHandler(a.Workspace, a.Logger, a.errorHandler).Routes())
		})
	})
}

// serveSPAHandler serves files from frontendFS and falls back to
// index.html for client-side routes. Unknown /api paths stay 404.
func (a *Application) serveSPAHandler(frontendFS fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(frontendFS))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			a.errorHandler.NotFound(w, r)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}
		if _, err := fs.Stat(frontendFS, name); err != nil {
			data, err := fs.ReadFile(frontendFS, "index.html")
			if err != nil {
				a.errorHandler.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write(data)
			return
		}
		fileServer.ServeHTTP(w, r)
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run listens on the configured address and serves until ctx is cancelled
// or SIGINT/SIGTERM arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Application started",
			slog.String("address", ln.Addr().String()),
			slog.String("level", a.Config.Logging.Level))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(ctx, "Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application. Subsequent calls return the
// result of the first.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.Logger.InfoContext(ctx, "Shutting down application")

		shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.stopErr = fmt.Errorf("server shutdown error: %w", err)
		}

		a.WebSocketHub.Stop()

		if a.OTelProviders != nil {
			if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
				a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			}
		}

		a.Logger.InfoContext(ctx, "Application shutdown complete")
	})
	return a.stopErr
}
