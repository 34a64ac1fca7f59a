package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/logger/pkg/logger"
	"github.com/cwrk-planet/relay-service/config"
	"github.com/cwrk-planet/relay-service/internal/pg"
	"github.com/cwrk-planet/relay-service/internal/presence"
	repoPg "github.com/cwrk-planet/relay-service/internal/repository/postgres"
	"github.com/cwrk-planet/relay-service/internal/service"
	httpx "github.com/cwrk-planet/relay-service/internal/transport/http"
	"github.com/cwrk-planet/relay-service/internal/transport/ws"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting relay-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, pg.Config{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	pendingRepo := repoPg.NewPendingRepoPG(pool)
	deviceRepo := repoPg.NewDeviceRepoPG(pool)
	groupRepo := repoPg.NewGroupRepoPG(pool)

	// --- presence & services ---
	registry := presence.NewRegistry()
	relaySvc := service.NewRelayService(pendingRepo, registry)
	licenseSvc := service.NewLicenseService(deviceRepo, groupRepo)

	// --- WS server ---
	wsServer := ws.NewServer(registry, relaySvc)

	// --- HTTP: relay + admin ---
	handler := httpx.NewHandler(relaySvc)
	router := httpx.NewRouter(handler, wsServer)
	relaySrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	adminHandler := httpx.NewAdminHandler(licenseSvc)
	adminRouter := httpx.NewAdminRouter(adminHandler, cfg.Admin.Token)
	adminSrv := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      adminRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("relay http listen", "addr", cfg.HTTP.Addr)
		if err := relaySrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		slog.Info("admin http listen", "addr", cfg.Admin.Addr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = relaySrv.Shutdown(ctxShutdown)
	_ = adminSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
