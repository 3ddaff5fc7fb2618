package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tigocode/solar-back/internal/api"
	"github.com/tigocode/solar-back/internal/app"
	"github.com/tigocode/solar-back/internal/auth"
	"github.com/tigocode/solar-back/internal/config"
	httptransport "github.com/tigocode/solar-back/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		app.NewLogger(config.Defaults(), os.Stderr).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Dispatcher != nil {
		go a.Dispatcher.Start(ctx)
	}
	go a.Scheduler.Start(ctx)

	handler := api.NewHandler(a.Service, a.Catalog, a.Users,
		api.WithLogger(logger),
		api.WithTokens(a.Tokens()),
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(a.Tokens(), cfg.AuthRequired, openRoute)

	// Uploads run sequentially with a per-image ceiling, so writes get a long deadline.
	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}, httptransport.Chain(mux,
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.CORSOrigin),
		httptransport.BodyLimit(cfg.MaxBodyBytes),
		authMiddleware.Wrap,
	))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("solar-back listening", "address", cfg.HTTPAddress, "store", cfg.StoreDriver, "events", cfg.EventsEnabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownCh
	logger.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	cancel()
	a.Scheduler.Wait()
	if a.Dispatcher != nil {
		a.Dispatcher.Wait()
	}
}

// openRoute lists the paths that never require a token.
func openRoute(r *http.Request) bool {
	switch r.URL.Path {
	case "/status", "/api/status", "/login", "/api/login", "/metrics":
		return true
	}
	return false
}
