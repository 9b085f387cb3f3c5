package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soaringjerry/obe-survey/internal/api"
	"github.com/soaringjerry/obe-survey/internal/config"
	"github.com/soaringjerry/obe-survey/internal/db"
	"github.com/soaringjerry/obe-survey/internal/metrics"
	"github.com/soaringjerry/obe-survey/internal/middleware"
)

func main() {
	cfg := config.Load()

	be, err := db.Open(context.Background(), cfg)
	if err != nil {
		cfg.Logger.Fatalf("open store: %v", err)
	}

	reg := prometheus.DefaultRegisterer
	router := api.NewRouter(api.Config{
		Store:          be.Store,
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret),
		Logger:         cfg.Logger,
		Metrics:        metrics.NewPrometheusMetrics(reg),
		HTTPMetrics:    middleware.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.Handler(),
		AllowedOrigins: cfg.AllowedOrigins,
		ExportInterval: cfg.ExportInterval,
		TokenTTL:       cfg.TokenTTL,
		Commit:         cfg.Commit,
		BuildTime:      cfg.BuildTime,
		Ping:           be.Ping,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		cfg.Logger.Printf("OBE survey server listening on %s", cfg.Addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(cfg, httpServer, errChan)

	if be.Close != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := be.Close(ctx); err != nil {
			cfg.Logger.Printf("close store: %v", err)
		}
	}
}

// waitForShutdown blocks until the server fails or a termination signal
// arrives, then drains in-flight requests.
func waitForShutdown(cfg config.Config, httpServer *http.Server, errChan <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Logger.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		cfg.Logger.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			cfg.Logger.Printf("shutdown: %v", err)
		}
	}
}
