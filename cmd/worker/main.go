// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	opshttp "threadline/internal/adapters/in/http"
	appcfg "threadline/internal/infra/config"
	workerDI "threadline/internal/platform/di/worker"
)

func main() {
	ctx := context.Background()

	cfg := appcfg.Load()

	// ─────────────────────────────────────────────────────────────
	// Wiring: clients, repos, usecase, scheduler
	// ─────────────────────────────────────────────────────────────
	container, err := workerDI.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("[boot] container init failed: %v", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Printf("[boot] WARN: container close: %v", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────
	// Scheduler: an invalid cadence must kill the boot, not be
	// discovered as "it never ran"
	// ─────────────────────────────────────────────────────────────
	if err := container.Scheduler.Start(); err != nil {
		log.Fatalf("[boot] scheduler start failed: %v", err)
	}
	defer container.Scheduler.Stop()

	// ─────────────────────────────────────────────────────────────
	// Ops HTTP surface
	// ─────────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	opshttp.NewOpsHandler(container.Abandonment, container.Scheduler).Register(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[boot] ops server listening on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	// ─────────────────────────────────────────────────────────────
	// Shutdown: SIGINT/SIGTERM → stop timers, drain the server.
	// An in-flight abandonment pass completes on its own.
	// ─────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("[boot] signal %s received, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[boot] ops server failed: %v", err)
		}
	}

	container.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[boot] WARN: server shutdown: %v", err)
	}

	log.Printf("[boot] bye")
}
