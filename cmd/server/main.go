package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/wikigest/internal/adapter"
	"github.com/dgallion1/wikigest/internal/api"
	"github.com/dgallion1/wikigest/internal/config"
	"github.com/dgallion1/wikigest/internal/logging"
	"github.com/dgallion1/wikigest/internal/pipeline"
	"github.com/dgallion1/wikigest/internal/store"
)

func main() {
	cfg, err := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, logging.FormatJSON)
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := adapter.NewRegistry()
	if err := registry.LoadDirectory(cfg.AdaptersDir); err != nil {
		log.Error("load adapters", "dir", cfg.AdaptersDir, "error", err)
		os.Exit(1)
	}

	// Entries go to the output directory, and to SQLite when configured.
	files, err := store.NewFileSink(cfg.OutputDir, log)
	if err != nil {
		log.Error("open output directory", "dir", cfg.OutputDir, "error", err)
		os.Exit(1)
	}
	sinks := store.Multi{files}
	var db *store.SQLiteStore
	if cfg.SQLitePath != "" {
		db, err = store.OpenSQLite(ctx, cfg.SQLitePath, log)
		if err != nil {
			log.Error("open sqlite", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, db)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, registry, sinks, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, db, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  5 * time.Minute, // dump uploads are large
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	drain := func() {
		orch.Stop()
		if err := sinks.Close(); err != nil {
			log.Error("close sinks", "error", err)
		}
	}

	log.Info("starting wikigest", "port", cfg.Port, "adapters", len(registry.List()), "sqlite", cfg.SQLitePath != "")
	if err := serve(sigCtx, httpServer, ln, drain, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}

const shutdownTimeout = 10 * time.Second

// serve runs srv on ln until ctx is done. It then stops taking requests and
// calls drain, and returns only once drain has finished.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, drain func(), log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		drain()
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serr := <-errCh; err == nil && !errors.Is(serr, http.ErrServerClosed) {
		err = serr
	}
	drain()
	return err
}
