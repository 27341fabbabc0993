package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/emojikey/emojikey-server/internal/codingctx"
	"github.com/emojikey/emojikey-server/internal/config"
	"github.com/emojikey/emojikey-server/internal/httpapi"
	"github.com/emojikey/emojikey-server/internal/observability"
	"github.com/emojikey/emojikey-server/internal/rollup"
	"github.com/emojikey/emojikey-server/internal/service"
	"github.com/emojikey/emojikey-server/internal/session"
	"github.com/emojikey/emojikey-server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	st, err := store.New(ctx, cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer st.Close()

	if cfg.DatabaseURL != "" {
		log.Printf("store: postgres")
	} else {
		log.Printf("store: local files in %s", cfg.DataDir)
	}

	svc := service.New(service.Config{
		Store:        st,
		Sessions:     session.NewManager(st, cfg.ModelID),
		Rollups:      rollup.NewPolicy(st),
		Samples:      codingctx.NewCacheSampleStore(cfg.SampleTTL),
		Metrics:      metrics,
		APIKey:       cfg.APIKey,
		ModelID:      cfg.ModelID,
		StoreTimeout: cfg.StoreTimeout,
	})

	api := httpapi.New(cfg, svc)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
