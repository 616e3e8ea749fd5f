package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/berry-stats/pkg/charts"
	handlers "github.com/Sternrassler/berry-stats/pkg/handlers/berries"
	"github.com/Sternrassler/berry-stats/pkg/metrics"
	berrymiddleware "github.com/Sternrassler/berry-stats/pkg/server/middleware"
)

// Cache is the response cache the server can use. Ping backs /ready.
type Cache interface {
	handlers.ResponseCache
	Ping(ctx context.Context) error
}

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server

	shutdownTimeout time.Duration
}

type Dependencies struct {
	Berries  handlers.StatsService
	Renderer charts.Renderer
	// Cache is optional; nil disables response caching.
	Cache    Cache
	CacheTTL time.Duration
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter builds the route tree.
func ConfigureRouter(logger zerolog.Logger, config Config) *chi.Mux {
	deps := config.Dependencies
	if deps.Renderer == nil {
		deps.Renderer = charts.NewPNGRenderer()
	}

	var responseCache handlers.ResponseCache
	if deps.Cache != nil {
		responseCache = deps.Cache
	}
	berryHandler := handlers.NewHandler(deps.Berries, deps.Renderer, responseCache, deps.CacheTTL)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(berrymiddleware.Logger(&logger))
	router.Use(berrymiddleware.Metrics)
	router.Use(middleware.Recoverer)

	router.Get("/health", health)
	router.Get("/ready", ready(deps.Cache))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/berries/stats", berryHandler.GetStats)
		r.Get("/berries/charts", berryHandler.GetCharts)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config)

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler returns the root handler.
func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (w *WebAPI) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return w.Run(ctx)
}

// Run serves until ctx is done, then shuts down gracefully.
func (w *WebAPI) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
		w.logger.Info().Msg("server stopped")
	}

	return nil
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func ready(c Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if c != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := c.Ping(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, "cache unavailable")
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "READY")
	}
}
